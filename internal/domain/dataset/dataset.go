// Package dataset names the two sample datasets the dashboard can show and
// carries their display metadata.
package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDataset is returned for identifiers outside the fixed set.
var ErrUnknownDataset = errors.New("unknown dataset")

// ID identifies a dataset.
type ID string

// Known datasets.
const (
	DVSGesture   ID = "dvs-gesture"
	NCaltech101 ID = "n-caltech101"
)

// Pattern selects how synthetic events are laid out.
type Pattern int

const (
	// PatternGesture is an expanding spiral around the sensor centre.
	PatternGesture Pattern = iota
	// PatternObject is uniform noise snapped onto edge lines.
	PatternObject
)

// Resolution is a sensor size in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// String renders the resolution as "WxH".
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Label renders the resolution with a multiplication sign, as used in captions.
func (r Resolution) Label() string {
	return fmt.Sprintf("%d×%d", r.Width, r.Height)
}

// Info is the display metadata for a dataset.
type Info struct {
	ID          ID         `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Resolution  Resolution `json:"resolution"`
	Format      string     `json:"format"`
	Features    []string   `json:"features"`
	Pattern     Pattern    `json:"-"`
}

var catalog = []Info{
	{
		ID:          DVSGesture,
		Title:       "DVS Gesture",
		Description: "user10_fluorescent_led.aedat",
		Resolution:  Resolution{Width: 128, Height: 128},
		Format:      "AEDAT 3.1",
		Features: []string{
			"Event-based gesture recognition",
			"128×128 pixel resolution",
			"AEDAT 3.1 format with labels",
		},
		Pattern: PatternGesture,
	},
	{
		ID:          NCaltech101,
		Title:       "N-Caltech101",
		Description: "accordion/image_0001.bin",
		Resolution:  Resolution{Width: 304, Height: 240},
		Format:      "Binary Events",
		Features: []string{
			"Object classification dataset",
			"304×240 pixel resolution",
			"Binary event format",
		},
		Pattern: PatternObject,
	},
}

// All returns every dataset in display order.
func All() []Info {
	out := make([]Info, len(catalog))
	for i, info := range catalog {
		info.Features = append([]string(nil), info.Features...)
		out[i] = info
	}
	return out
}

// Lookup returns the metadata for id.
func Lookup(id ID) (Info, error) {
	for _, info := range catalog {
		if info.ID == id {
			info.Features = append([]string(nil), info.Features...)
			return info, nil
		}
	}
	return Info{}, fmt.Errorf("%w: %q", ErrUnknownDataset, string(id))
}

// MustLookup is Lookup for identifiers already validated by Parse.
func MustLookup(id ID) Info {
	info, err := Lookup(id)
	if err != nil {
		panic(err)
	}
	return info
}

// Parse validates a raw identifier. Matching is case-insensitive.
func Parse(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if _, err := Lookup(id); err != nil {
		return "", err
	}
	return id, nil
}

// Valid reports whether id is a known dataset.
func (id ID) Valid() bool {
	_, err := Lookup(id)
	return err == nil
}

// Title returns the display title, or the raw id when unknown.
func (id ID) Title() string {
	if info, err := Lookup(id); err == nil {
		return info.Title
	}
	return string(id)
}
