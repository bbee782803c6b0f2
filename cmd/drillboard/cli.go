package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/courtlab/drillboard/internal/api"
	"github.com/courtlab/drillboard/internal/codegen"
	"github.com/courtlab/drillboard/internal/config"
	"github.com/courtlab/drillboard/internal/document"
	"github.com/courtlab/drillboard/internal/engine"
	"github.com/courtlab/drillboard/internal/export/snapshot"
	v1 "github.com/courtlab/drillboard/internal/export/v1"
	"github.com/courtlab/drillboard/internal/scene"
	"github.com/spf13/pflag"
)

// Output formats of the convert command.
const (
	formatSemantic = "semantic"
	formatSnapshot = "snapshot"
)

// loadDrill reads a drill file in either interchange shape and brings its
// derived geometry up to date.
func loadDrill(path string, configDir string) (*engine.Engine, error) {
	if err := loadConfig(configDir); err != nil && configDir != "" {
		fmt.Fprintf(os.Stderr, "warning: %v, using defaults\n", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := api.DecodeDocument(data, config.GetFrame())
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	grid := config.GetGridConfig()
	eng := engine.New(document.New(), engine.Options{
		Frame:         config.GetFrame(),
		Path:          config.GetPathParams(),
		GridFrequency: grid.Frequency,
	})
	eng.Load(doc)
	return eng, nil
}

func fileArg(fs *pflag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s expects exactly one drill file", fs.Name())
	}
	return fs.Arg(0), nil
}

func runCodegen(args []string, w io.Writer) error {
	fs := pflag.NewFlagSet("codegen", pflag.ContinueOnError)
	configDir := fs.String("config", "", "directory holding "+config.FileName)
	title := fs.String("title", "", "court title in the script header")
	output := fs.String("output", "", "image file the script saves to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := fileArg(fs)
	if err != nil {
		return err
	}
	eng, err := loadDrill(path, *configDir)
	if err != nil {
		return err
	}

	script := codegen.GeneratePython(eng.Document(), eng.Frame(), codegen.PythonOptions{
		Title:  *title,
		Output: *output,
	})
	_, err = io.WriteString(w, script)
	return err
}

func runScene(args []string, w io.Writer) error {
	fs := pflag.NewFlagSet("scene", pflag.ContinueOnError)
	configDir := fs.String("config", "", "directory holding "+config.FileName)
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := fileArg(fs)
	if err != nil {
		return err
	}
	eng, err := loadDrill(path, *configDir)
	if err != nil {
		return err
	}

	sc := scene.Build(v1.Build(eng.Document(), eng.Frame()), config.GetTrajectoryConstants())
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sc)
}

func runConvert(args []string, w io.Writer) error {
	fs := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	configDir := fs.String("config", "", "directory holding "+config.FileName)
	to := fs.String("to", formatSemantic, "output format: semantic or snapshot")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := fileArg(fs)
	if err != nil {
		return err
	}
	eng, err := loadDrill(path, *configDir)
	if err != nil {
		return err
	}

	var data []byte
	switch *to {
	case formatSemantic:
		data, err = v1.Marshal(v1.Build(eng.Document(), eng.Frame()))
	case formatSnapshot:
		data, err = snapshot.Encode(eng.Document())
	default:
		return fmt.Errorf("unknown format %q", *to)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func runSend(args []string, w io.Writer) error {
	fs := pflag.NewFlagSet("send", pflag.ContinueOnError)
	server := fs.String("server", "http://127.0.0.1:8080", "drillboard server URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("send expects a command")
	}

	c := api.NewClient(*server)
	res, err := c.Command(fs.Arg(0), fs.Args()[1:]...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(res))
	return err
}
