package stats

import (
	"encoding/gob"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gitlab.com/lologarithm/climatesim/climate"
)

const filePrefix = "rs_"

// GobRecorder appends snapshots to a gob stream in dir/rs_<unix>.
// Every recorder opens its own file so runs never interleave.
type GobRecorder struct {
	dir string

	mu     sync.Mutex
	file   *os.File
	enc    *gob.Encoder
	events []climate.Snapshot
}

// NewGobRecorder loads the existing history in dir and opens a new stats file.
func NewGobRecorder(dir string) (*GobRecorder, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("creating stats dir: %w", err)
	}
	events, err := LoadStats(dir)
	if err != nil {
		return nil, err
	}
	f, err := getStatsFile(time.Now(), dir)
	if err != nil {
		return nil, err
	}
	return &GobRecorder{
		dir:    dir,
		file:   f,
		enc:    gob.NewEncoder(f),
		events: events,
	}, nil
}

func (g *GobRecorder) Display(s climate.Snapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enc.Encode(&s); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	g.events = append(g.events, s)
	return nil
}

func (g *GobRecorder) History(limit int) ([]climate.Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := tail(g.events, limit)
	return append([]climate.Snapshot(nil), out...), nil
}

func (g *GobRecorder) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.file.Sync()
	return g.file.Close()
}

// LoadStats will load all stats from given disk location, oldest file first.
func LoadStats(dir string) ([]climate.Snapshot, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading stats dir: %w", err)
	}
	names := []string{}
	for _, fi := range files {
		if strings.HasPrefix(fi.Name(), filePrefix) {
			names = append(names, fi.Name())
		}
	}
	sort.Strings(names)

	events := []climate.Snapshot{}
	for _, name := range names {
		file, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			log.Printf("[Error] Failed to open existing stats file: %s", err)
			continue
		}
		gdec := gob.NewDecoder(file)
		for {
			var e climate.Snapshot
			err = gdec.Decode(&e)
			if err != nil {
				if err != io.EOF {
					log.Printf("[Error] Failed to deserialize statistics data in %s: %s", name, err)
				}
				break
			}
			events = append(events, e)
		}
		file.Close()
	}
	return events, nil
}

// getStatsFile opens a fresh stats file named after when. If a file with
// that second already exists the name gets a numeric suffix.
func getStatsFile(when time.Time, dir string) (*os.File, error) {
	base := filePrefix + strconv.FormatInt(when.Unix(), 10)
	name := base
	for i := 1; ; i++ {
		f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("opening stats file: %w", err)
		}
		name = base + "_" + strconv.Itoa(i)
	}
}
