package annotation

import (
	"fmt"
	"os"
	"strconv"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// document 是数据文件的顶层结构：
//
//	sentences:
//	  - text: "I went to the sister's house."
//	    words:
//	      went: {stress: 1, liaison: {delete: t}}
//	      to:   {stress: 0, liaison: 0}
type document struct {
	Sentences []struct {
		Text  string                `yaml:"text"`
		Words map[string]Annotation `yaml:"words"`
	} `yaml:"sentences"`
}

// LoadFile 从 YAML 文件加载数据集。
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取标注文件 %s 失败: %w", path, err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析标注文件 %s 失败: %w", path, err)
	}
	return set, nil
}

// Parse 解析 YAML 数据集。
func Parse(data []byte) (*Set, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	set := NewSet()
	for i, s := range doc.Sentences {
		if s.Text == "" {
			return nil, fmt.Errorf("第 %d 个句子缺少 text", i+1)
		}
		set.Add(s.Text, s.Words)
	}
	return set, nil
}

// UnmarshalYAML 解析 {stress: 0|1, liaison: 0 | {delete: c}}。
func (a *Annotation) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Stress  yaml.Node `yaml:"stress"`
		Liaison yaml.Node `yaml:"liaison"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	stress, err := decodeFlag(&raw.Stress)
	if err != nil {
		return fmt.Errorf("第 %d 行 stress: %w", value.Line, err)
	}
	a.Stress = stress
	a.Liaison = nil

	switch raw.Liaison.Kind {
	case 0:
		// 未填写
	case yaml.ScalarNode:
		on, err := decodeFlag(&raw.Liaison)
		if err != nil || on {
			return fmt.Errorf("第 %d 行 liaison 只能是 0 或 {delete: 字母}", raw.Liaison.Line)
		}
	case yaml.MappingNode:
		var l struct {
			Delete string `yaml:"delete"`
		}
		if err := raw.Liaison.Decode(&l); err != nil {
			return err
		}
		if utf8.RuneCountInString(l.Delete) != 1 {
			return fmt.Errorf("第 %d 行 liaison.delete 必须是单个字母: %q", raw.Liaison.Line, l.Delete)
		}
		a.Liaison = &Liaison{Delete: l.Delete}
	default:
		return fmt.Errorf("第 %d 行 liaison 格式不支持", raw.Liaison.Line)
	}
	return nil
}

// decodeFlag 接受 0/1、true/false 以及空值。
func decodeFlag(n *yaml.Node) (bool, error) {
	if n.Kind == 0 || n.Tag == "!!null" {
		return false, nil
	}
	if n.Kind != yaml.ScalarNode {
		return false, fmt.Errorf("应为 0/1")
	}
	if b, err := strconv.ParseBool(n.Value); err == nil {
		return b, nil
	}
	v, err := strconv.Atoi(n.Value)
	if err != nil {
		return false, fmt.Errorf("无法解析 %q", n.Value)
	}
	return v != 0, nil
}
