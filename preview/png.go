package preview

import (
	"bytes"
	"errors"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ONSdigital/go-ns/log"
)

const (
	// ArgSVGFilename is replaced with the name of the svg file to convert when invoking the PNGConverter executable
	ArgSVGFilename = "<SVG>"
	// ArgPNGFilename is replaced with the name of the png file to write when invoking the PNGConverter executable
	ArgPNGFilename = "<PNG>"
)

// ErrNoConverter is returned when a png is requested without a converter executable
var ErrNoConverter = errors.New("no svg to png converter configured")

// PNGConverter converts an svg document to png
type PNGConverter interface {
	Convert(svg []byte) ([]byte, error)
}

// executablePNGConverter invokes an executable file to convert an svg file to png
type executablePNGConverter struct {
	executable string
	arguments  []string
}

// NewPNGConverter creates a PNGConverter that invokes an executable to perform the conversion,
// such as rsvg-convert. The arguments should include ArgSVGFilename as the name of the svg file to
// convert and ArgPNGFilename as the name of the png file to create.
func NewPNGConverter(executable string, arguments []string) PNGConverter {
	return &executablePNGConverter{executable: executable, arguments: arguments}
}

// Convert writes svg to a temporary directory, runs the executable and returns the png it wrote
func (exe *executablePNGConverter) Convert(svg []byte) ([]byte, error) {
	if len(exe.executable) == 0 {
		return nil, ErrNoConverter
	}

	dir, err := ioutil.TempDir("", "preview")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Debug("unable to delete temporary directory", log.Data{"dir": dir, "error": err.Error()})
		}
	}()

	tempSVG := filepath.Join(dir, "preview.svg")
	tempPNG := filepath.Join(dir, "preview.png")
	if err := ioutil.WriteFile(tempSVG, svg, 0666); err != nil {
		log.Error(err, log.Data{"_message": "Unable to write svg file"})
		return nil, err
	}

	args := make([]string, len(exe.arguments))
	for i, s := range exe.arguments {
		args[i] = strings.Replace(s, ArgSVGFilename, tempSVG, -1)
		args[i] = strings.Replace(args[i], ArgPNGFilename, tempPNG, -1)
	}

	cmd := exec.Command(exe.executable, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		log.Error(err, log.Data{"command": exe.executable, "arguments": args, "stderr": stderr.String()})
		return nil, err
	}

	png, err := ioutil.ReadFile(tempPNG)
	if err != nil {
		log.Error(err, log.Data{"_message": "Unable to read png file"})
		return nil, err
	}
	return png, nil
}
