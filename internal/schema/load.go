package schema

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed builtin.yaml
var builtinSchema []byte

type fileParam struct {
	Name      string `yaml:"name"`
	Level     int    `yaml:"level"`
	Pattern   string `yaml:"pattern"`
	Mandatory bool   `yaml:"mandatory"`
}

type fileCommand struct {
	Name    string      `yaml:"name"`
	Handler string      `yaml:"handler"`
	Login   bool        `yaml:"login"`
	Params  []fileParam `yaml:"params"`
}

type file struct {
	Commands []fileCommand `yaml:"commands"`
}

// Parse builds a Registry from a YAML document.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}

	cmds := make([]Command, 0, len(f.Commands))
	for _, fc := range f.Commands {
		cmd := Command{
			Name:    CommandName(fc.Name),
			Handler: HandlerID(fc.Handler),
			Login:   fc.Login,
			Params:  make([]Param, 0, len(fc.Params)),
		}
		for _, fp := range fc.Params {
			level := fp.Level
			if level == 0 {
				level = 1
			}
			re, err := regexp.Compile(fp.Pattern)
			if err != nil {
				return nil, fmt.Errorf("schema: %s.%s: compile pattern: %w", fc.Name, fp.Name, err)
			}
			cmd.Params = append(cmd.Params, Param{
				Name:      fp.Name,
				Level:     level,
				Pattern:   re,
				Mandatory: fp.Mandatory,
			})
		}
		cmds = append(cmds, cmd)
	}
	return New(cmds...)
}

// Load reads a YAML schema file. An empty path selects the built-in schema.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Builtin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Parse(data)
}

// Builtin returns the interlibrary-loan schema shipped with the binary.
func Builtin() (*Registry, error) {
	return Parse(builtinSchema)
}
