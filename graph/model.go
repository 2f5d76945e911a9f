package graph

import (
	"io"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/bjaus/textformat"
)

// MediaType is the kind of data flowing through a pad or link.
type MediaType string

// Media types.
const (
	MediaUnknown    MediaType = ""
	MediaVideo      MediaType = "video"
	MediaAudio      MediaType = "audio"
	MediaData       MediaType = "data"
	MediaSubtitle   MediaType = "subtitle"
	MediaAttachment MediaType = "attachment"
)

// ID returns the numeric media type id, -1 for unknown types.
func (m MediaType) ID() int {
	switch m {
	case MediaVideo:
		return 0
	case MediaAudio:
		return 1
	case MediaData:
		return 2
	case MediaSubtitle:
		return 3
	case MediaAttachment:
		return 4
	default:
		return -1
	}
}

// String returns the type name, "unknown" when unset.
func (m MediaType) String() string {
	if m.ID() < 0 {
		return "unknown"
	}
	return string(m)
}

func (m MediaType) visual() bool { return m == MediaVideo || m == MediaSubtitle }

// Document is everything a graph description prints.
type Document struct {
	Program *ProgramVersion `yaml:"program_version"`
	Graphs  []Graph         `yaml:"graphs"`
	Logs    []LogEntry      `yaml:"logs"`
}

// ProgramVersion identifies the program that built the graphs.
type ProgramVersion struct {
	Version       string `yaml:"version"`
	Copyright     string `yaml:"copyright"`
	Compiler      string `yaml:"compiler"`
	Configuration string `yaml:"configuration"`
}

// Failure is an error recorded while a graph was being set up. It is printed
// as an Error section in place.
type Failure struct {
	Code    int    `yaml:"code"`
	Message string `yaml:"message"`
}

// Graph is one configured filter graph.
type Graph struct {
	Index       int      `yaml:"index"`
	Description string   `yaml:"description"`
	Inputs      []Input  `yaml:"inputs"`
	Outputs     []Output `yaml:"outputs"`
	Filters     []Filter `yaml:"filters"`
	Failure     *Failure `yaml:"failure"`
}

// Pad is the filter behind a graph input or output.
type Pad struct {
	Name        string `yaml:"name"`
	Filter      string `yaml:"filter"`
	Description string `yaml:"description"`
}

// Stream holds the negotiated stream parameters of a pad or link.
type Stream struct {
	MediaType     MediaType           `yaml:"media_type"`
	Format        string              `yaml:"format"`
	Width         int                 `yaml:"width"`
	Height        int                 `yaml:"height"`
	SAR           textformat.Rational `yaml:"sar"`
	TimeBase      textformat.Rational `yaml:"time_base"`
	ChannelLayout string              `yaml:"channel_layout"`
	Channels      int                 `yaml:"channels"`
	SampleRate    int                 `yaml:"sample_rate"`
}

// Input is a graph input.
type Input struct {
	Name     string           `yaml:"name"`
	Pad      *Pad             `yaml:"pad"`
	Stream   Stream           `yaml:",inline"`
	HwFrames *HwFramesContext `yaml:"hw_frames"`
	HwDevice *HwDeviceContext `yaml:"hw_device"`
}

// Output is a graph output.
type Output struct {
	Name     string           `yaml:"name"`
	Pad      *Pad             `yaml:"pad"`
	Stream   Stream           `yaml:",inline"`
	HwDevice *HwDeviceContext `yaml:"hw_device"`
}

// Filter is one filter instance of a graph.
type Filter struct {
	Name        string           `yaml:"name"`
	Type        string           `yaml:"type"`
	Description string           `yaml:"description"`
	HwDevice    *HwDeviceContext `yaml:"hw_device"`
	Inputs      []Link           `yaml:"inputs"`
	Outputs     []Link           `yaml:"outputs"`
	Failure     *Failure         `yaml:"failure"`
}

// Link connects an output pad of one filter to an input pad of another.
type Link struct {
	Source    string           `yaml:"source"`
	SourcePad string           `yaml:"source_pad"`
	Dest      string           `yaml:"dest"`
	DestPad   string           `yaml:"dest_pad"`
	Stream    Stream           `yaml:",inline"`
	HwFrames  *HwFramesContext `yaml:"hw_frames"`
}

// HwDeviceContext is a hardware device a filter runs on.
type HwDeviceContext struct {
	DeviceType string `yaml:"device_type"`
}

// HwFramesContext describes a pool of hardware frames.
type HwFramesContext struct {
	HwPixelFormat      string          `yaml:"hw_pixel_format"`
	HwPixelFormatAlias string          `yaml:"hw_pixel_format_alias"`
	SwPixelFormat      string          `yaml:"sw_pixel_format"`
	SwPixelFormatAlias string          `yaml:"sw_pixel_format_alias"`
	Width              int             `yaml:"width"`
	Height             int             `yaml:"height"`
	Device             HwDeviceContext `yaml:"device"`
}

// LogEntry is a log line captured while the graphs were built.
type LogEntry struct {
	// Time is a timestamp in microseconds; zero when unknown.
	Time     int64  `yaml:"time"`
	Level    string `yaml:"level"`
	Category string `yaml:"category"`
	Message  string `yaml:"message"`
}

// Load decodes a YAML document. Unknown fields are rejected.
func Load(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, errors.Wrap(err, "decode graph description")
	}
	return &doc, nil
}
