package answer

import (
	"fmt"
	"strings"

	"github.com/ICE3BR/IA-Data-Analysis/internal/table"
)

// Kind discriminates the Result variants.
type Kind string

const (
	KindTabular Kind = "table"
	KindImage   Kind = "image"
	KindText    Kind = "text"
)

// ImageSuffix marks a raw string result as a chart file path.
const ImageSuffix = ".png"

// Result is exactly one of Tabular, ImageReference or Text.
type Result interface {
	Kind() Kind
	isResult()
}

// Tabular wraps a table returned by the engine.
type Tabular struct{ Table *table.Table }

// ImageReference is a path to a rendered chart.
type ImageReference struct{ Path string }

// Text is a plain answer.
type Text struct{ Value string }

func (Tabular) Kind() Kind        { return KindTabular }
func (ImageReference) Kind() Kind { return KindImage }
func (Text) Kind() Kind           { return KindText }

func (Tabular) isResult()        {}
func (ImageReference) isResult() {}
func (Text) isResult()           {}

// Classify turns an engine's raw return value into a Result. Tables win,
// then strings ending in ".png", then everything else as text.
// The image path is trusted on its suffix alone.
func Classify(raw any) Result {
	switch v := raw.(type) {
	case nil:
		return Text{}
	case *table.Table:
		if v == nil {
			return Text{}
		}
		return Tabular{Table: v}
	case table.Table:
		return Tabular{Table: &v}
	case string:
		if strings.HasSuffix(v, ImageSuffix) {
			return ImageReference{Path: v}
		}
		return Text{Value: v}
	case Tabular:
		if v.Table == nil {
			return Text{}
		}
		return v
	case Result:
		return v
	default:
		return Text{Value: fmt.Sprint(v)}
	}
}
