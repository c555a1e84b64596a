package server

import (
	"fmt"

	"gitlab.com/lologarithm/climatesim/climate"
)

var page = `<html>
<head>
  <meta http-equiv="refresh" content="5">
  <style>
  div {
    margin: auto;
  }
  form {
    margin: auto;
    width: 650px;
  }
  button {
      height:150px;
      width:150px;
      font-size: 4em;
  }
  #ats {
    font-size: 5em;
    margin-left: 50px;
    width: 150px;
    height: 150px;
    color: white;
    background-color: transparent;
    border: none;
  }
  </style>
</head>
<body style="background-color: black;color: white">
  <p style="font-size: 4em;">%s</p>
  <div style="width: 610px">
    <p style="font-size: 6em;">%dC / %dF</p>
    <p style="font-size: 3em;">Water Valve: %d%%<br />Fan intensity: %d%%</p>
  </div>
  <div style="">
    <form action="/ats" method="post">
      <input type="text" id="ats" name="ats" value="%d" />
      <button action="submit">Set</button>
    </form>
  </div>
</body>
</html>`

// renderPage fills the status page from s.
func renderPage(s climate.Snapshot) string {
	return fmt.Sprintf(page, s.Mode, s.ATS, s.ATS*9/5+32, s.WaterValve, s.Fan, s.ATS)
}
