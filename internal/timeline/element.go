package timeline

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Kind tags the payload an Element carries. The set is closed.
type Kind string

const (
	KindVideo   Kind = "video"
	KindImage   Kind = "image"
	KindAudio   Kind = "audio"
	KindText    Kind = "text"
	KindCaption Kind = "caption"
)

// Kinds lists every element kind in declaration order.
var Kinds = []Kind{KindVideo, KindImage, KindAudio, KindText, KindCaption}

func (k Kind) Valid() bool {
	switch k {
	case KindVideo, KindImage, KindAudio, KindText, KindCaption:
		return true
	}
	return false
}

// MediaPayload is carried by video and image elements. PlaybackRate and
// Volume are only meaningful for video.
type MediaPayload struct {
	Src          string
	Width        float64
	Height       float64
	X            float64
	Y            float64
	ObjectFit    string
	PlaybackRate float64
	Volume       float64
}

type TextPayload struct {
	Text       string
	FontFamily string
	FontSize   float64
	FontWeight string
	FontStyle  string
	X          float64
	Y          float64
	Rotation   float64
	Fill       string
	TextAlign  string
	TextWrap   string
}

type AudioPayload struct {
	Src          string
	Volume       float64
	Loop         bool
	PlaybackRate float64
}

type CaptionPayload struct {
	Text string
	Lang string
}

// Element is a single timed item on a track. Only the payload matching Kind
// is meaningful; the others stay zero. Elements are values: copying one
// yields an independent element.
type Element struct {
	ID    string
	Kind  Kind
	Start float64
	End   float64

	Media   MediaPayload
	Overlay TextPayload
	Sound   AudioPayload
	Cue     CaptionPayload
}

func newElement(id string, kind Kind, start, end float64) (Element, error) {
	if id == "" {
		id = uuid.NewString()
	}
	el := Element{ID: id, Kind: kind, Start: start, End: end}
	if err := el.Validate(); err != nil {
		return Element{}, err
	}
	return el, nil
}

// NewCaption creates a caption element. An empty id is replaced with a
// generated one.
func NewCaption(id string, start, end float64, text, lang string) (Element, error) {
	el, err := newElement(id, KindCaption, start, end)
	if err != nil {
		return Element{}, err
	}
	el.Cue = CaptionPayload{Text: text, Lang: lang}
	return el, nil
}

func NewVideo(id string, start, end float64, media MediaPayload) (Element, error) {
	el, err := newElement(id, KindVideo, start, end)
	if err != nil {
		return Element{}, err
	}
	if media.PlaybackRate == 0 {
		media.PlaybackRate = 1
	}
	if media.Volume == 0 {
		media.Volume = 1
	}
	el.Media = media
	return el, nil
}

func NewImage(id string, start, end float64, media MediaPayload) (Element, error) {
	el, err := newElement(id, KindImage, start, end)
	if err != nil {
		return Element{}, err
	}
	media.PlaybackRate = 0
	media.Volume = 0
	el.Media = media
	return el, nil
}

func NewText(id string, start, end float64, text TextPayload) (Element, error) {
	el, err := newElement(id, KindText, start, end)
	if err != nil {
		return Element{}, err
	}
	el.Overlay = text
	return el, nil
}

func NewAudio(id string, start, end float64, audio AudioPayload) (Element, error) {
	el, err := newElement(id, KindAudio, start, end)
	if err != nil {
		return Element{}, err
	}
	if audio.PlaybackRate == 0 {
		audio.PlaybackRate = 1
	}
	el.Sound = audio
	return el, nil
}

// Validate checks the base contract shared by all kinds.
func (e Element) Validate() error {
	if e.ID == "" {
		return ErrMissingID
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("%q: %w", e.Kind, ErrInvalidKind)
	}
	if !validRange(e.Start, e.End) {
		return fmt.Errorf("element %s [%g, %g]: %w", e.ID, e.Start, e.End, ErrInvalidRange)
	}
	return nil
}

// validRange reports whether [start, end) is a finite, non-empty range
// starting at or after 0.
func validRange(start, end float64) bool {
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return false
	}
	return start >= 0 && end > start
}

func (e Element) Duration() float64 {
	return e.End - e.Start
}

// Overlaps reports whether the half-open intervals [Start, End) intersect.
func (e Element) Overlaps(o Element) bool {
	return e.Start < o.End && o.Start < e.End
}

// Source returns the media reference of video, image and audio elements.
func (e Element) Source() string {
	switch e.Kind {
	case KindVideo, KindImage:
		return e.Media.Src
	case KindAudio:
		return e.Sound.Src
	case KindText, KindCaption:
		return ""
	}
	return ""
}

// CaptionText returns the caption text; ok is false for non-caption elements.
func (e Element) CaptionText() (text string, ok bool) {
	if e.Kind != KindCaption {
		return "", false
	}
	return e.Cue.Text, true
}

// SetCaptionText replaces the caption text on a caption element.
func (e *Element) SetCaptionText(text string) error {
	if e.Kind != KindCaption {
		return fmt.Errorf("set caption text on %s element: %w", e.Kind, ErrKindMismatch)
	}
	e.Cue.Text = text
	return nil
}

// Retimed returns a copy of e moved to start, keeping its duration.
func (e Element) Retimed(start float64) Element {
	d := e.Duration()
	e.Start = start
	e.End = start + d
	return e
}

// TrackTypeFor maps an element kind to the track type an auto-created track
// for it gets.
func TrackTypeFor(k Kind) TrackType {
	switch k {
	case KindVideo, KindImage:
		return TrackVideo
	case KindAudio:
		return TrackAudio
	case KindCaption:
		return TrackCaption
	case KindText:
		return TrackGeneric
	}
	return TrackGeneric
}

type elementBase struct {
	ID   string  `json:"id"`
	Type Kind    `json:"type"`
	S    float64 `json:"s"`
	E    float64 `json:"e"`
}

type captionDoc struct {
	elementBase
	T    string `json:"t"`
	Lang string `json:"lang,omitempty"`
}

type imageDoc struct {
	elementBase
	Src       string  `json:"src"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	ObjectFit string  `json:"objectFit"`
}

type videoDoc struct {
	imageDoc
	PlaybackRate float64 `json:"playbackRate"`
	Volume       float64 `json:"volume"`
}

type textDoc struct {
	elementBase
	Text       string  `json:"text"`
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	FontWeight string  `json:"fontWeight"`
	FontStyle  string  `json:"fontStyle"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Rotation   float64 `json:"rotation"`
	Fill       string  `json:"fill"`
	TextAlign  string  `json:"textAlign"`
	TextWrap   string  `json:"textWrap"`
}

type audioDoc struct {
	elementBase
	Src          string  `json:"src"`
	Volume       float64 `json:"volume"`
	Loop         bool    `json:"loop"`
	PlaybackRate float64 `json:"playbackRate"`
}

func (e Element) base() elementBase {
	return elementBase{ID: e.ID, Type: e.Kind, S: e.Start, E: e.End}
}

func (e Element) mediaDoc() imageDoc {
	return imageDoc{
		elementBase: e.base(),
		Src:         e.Media.Src,
		Width:       e.Media.Width,
		Height:      e.Media.Height,
		X:           e.Media.X,
		Y:           e.Media.Y,
		ObjectFit:   e.Media.ObjectFit,
	}
}

// MarshalJSON writes the base fields merged with the kind's payload fields.
func (e Element) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindCaption:
		return json.Marshal(captionDoc{elementBase: e.base(), T: e.Cue.Text, Lang: e.Cue.Lang})
	case KindImage:
		return json.Marshal(e.mediaDoc())
	case KindVideo:
		return json.Marshal(videoDoc{imageDoc: e.mediaDoc(), PlaybackRate: e.Media.PlaybackRate, Volume: e.Media.Volume})
	case KindText:
		o := e.Overlay
		return json.Marshal(textDoc{
			elementBase: e.base(),
			Text:        o.Text,
			FontFamily:  o.FontFamily,
			FontSize:    o.FontSize,
			FontWeight:  o.FontWeight,
			FontStyle:   o.FontStyle,
			X:           o.X,
			Y:           o.Y,
			Rotation:    o.Rotation,
			Fill:        o.Fill,
			TextAlign:   o.TextAlign,
			TextWrap:    o.TextWrap,
		})
	case KindAudio:
		return json.Marshal(audioDoc{
			elementBase:  e.base(),
			Src:          e.Sound.Src,
			Volume:       e.Sound.Volume,
			Loop:         e.Sound.Loop,
			PlaybackRate: e.Sound.PlaybackRate,
		})
	}
	return nil, fmt.Errorf("marshal element %s: %q: %w", e.ID, e.Kind, ErrInvalidKind)
}

// UnmarshalJSON decodes the base fields, then the payload selected by type.
// The decoded element is validated.
func (e *Element) UnmarshalJSON(data []byte) error {
	var base elementBase
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}

	out := Element{ID: base.ID, Kind: base.Type, Start: base.S, End: base.E}
	switch base.Type {
	case KindCaption:
		var doc captionDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		out.Cue = CaptionPayload{Text: doc.T, Lang: doc.Lang}
	case KindImage:
		var doc imageDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		out.Media = mediaFromDoc(doc)
	case KindVideo:
		doc := videoDoc{PlaybackRate: 1, Volume: 1}
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		out.Media = mediaFromDoc(doc.imageDoc)
		out.Media.PlaybackRate = doc.PlaybackRate
		out.Media.Volume = doc.Volume
	case KindText:
		var doc textDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		out.Overlay = TextPayload{
			Text:       doc.Text,
			FontFamily: doc.FontFamily,
			FontSize:   doc.FontSize,
			FontWeight: doc.FontWeight,
			FontStyle:  doc.FontStyle,
			X:          doc.X,
			Y:          doc.Y,
			Rotation:   doc.Rotation,
			Fill:       doc.Fill,
			TextAlign:  doc.TextAlign,
			TextWrap:   doc.TextWrap,
		}
	case KindAudio:
		doc := audioDoc{Volume: 1, PlaybackRate: 1}
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		out.Sound = AudioPayload{Src: doc.Src, Volume: doc.Volume, Loop: doc.Loop, PlaybackRate: doc.PlaybackRate}
	default:
		return fmt.Errorf("element %s: %q: %w", base.ID, base.Type, ErrInvalidKind)
	}

	if err := out.Validate(); err != nil {
		return err
	}
	*e = out
	return nil
}

func mediaFromDoc(doc imageDoc) MediaPayload {
	return MediaPayload{
		Src:       doc.Src,
		Width:     doc.Width,
		Height:    doc.Height,
		X:         doc.X,
		Y:         doc.Y,
		ObjectFit: doc.ObjectFit,
	}
}
