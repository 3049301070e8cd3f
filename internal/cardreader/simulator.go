package cardreader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ScriptStep 模拟器脚本中的一步
type ScriptStep struct {
	Outcome  string        `yaml:"outcome"` // card | none | fault
	CardType string        `yaml:"cardType"`
	TagID    string        `yaml:"tagId"`
	Error    string        `yaml:"error"`
	Delay    time.Duration `yaml:"delay"`
	Repeat   int           `yaml:"repeat"`
}

// Script 模拟器脚本
type Script struct {
	Loop  bool         `yaml:"loop"`
	Steps []ScriptStep `yaml:"steps"`
}

// ParseScript 从 YAML 解析模拟器脚本
func ParseScript(r io.Reader) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty simulator script")
		}
		return nil, fmt.Errorf("decode simulator script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, errors.New("simulator script has no steps")
	}
	return &s, nil
}

// Outcomes 将脚本展开为读卡结果序列
func (s *Script) Outcomes() ([]Outcome, error) {
	var out []Outcome
	for i, step := range s.Steps {
		o, err := step.outcome()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		o.Delay = step.Delay
		n := step.Repeat
		if n <= 0 {
			n = 1
		}
		for j := 0; j < n; j++ {
			out = append(out, o)
		}
	}
	return out, nil
}

func (st ScriptStep) outcome() (Outcome, error) {
	switch st.Outcome {
	case "card":
		t, err := ParseCardType(st.CardType)
		if err != nil {
			return Outcome{}, err
		}
		return Card(t, st.TagID), nil
	case "none", "":
		return NoCard(), nil
	case "fault":
		msg := st.Error
		if msg == "" {
			msg = "simulated reader fault"
		}
		return Fault(errors.New(msg)), nil
	default:
		return Outcome{}, fmt.Errorf("unknown outcome %q", st.Outcome)
	}
}

// OpenSimulator 从脚本文件创建模拟读卡会话
func OpenSimulator(path string) (*Scripted, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open simulator script: %w", err)
	}
	defer f.Close()

	script, err := ParseScript(f)
	if err != nil {
		return nil, err
	}
	outcomes, err := script.Outcomes()
	if err != nil {
		return nil, err
	}
	return NewScripted(script.Loop, outcomes...), nil
}
