package messages

import (
	"encoding/json"
	"strconv"
)

// ContentPageNavigationState describes the paging controls discovered in
// the hosted document. IsVisible is true iff at least one of the three
// controls was found. The payload is replaced wholesale on every update;
// there are no partial merges.
type ContentPageNavigationState struct {
	IsVisible          bool `json:"isVisible"`
	HasTableOfContents bool `json:"hasTableOfContents"`
	CanGoPrevious      bool `json:"canGoPrevious"`
	CanGoNext          bool `json:"canGoNext"`
}

// Action identifies one paging command the native footer can issue.
// The enumeration is closed; anything else is a no-op for the document.
type Action string

const (
	ActionOpenTableOfContents Action = "openTableOfContents"
	ActionGoPrevious          Action = "goPrevious"
	ActionGoNext              Action = "goNext"
)

// Valid reports whether a is one of the defined paging actions.
func (a Action) Valid() bool {
	switch a {
	case ActionOpenTableOfContents, ActionGoPrevious, ActionGoNext:
		return true
	}
	return false
}

// NavigationCommand is the native→document paging command payload.
type NavigationCommand struct {
	Action Action `json:"action"`
}

// TocPage is one entry of the legacy table of contents. ID is an href or
// extracted key, unique within a page set, and doubles as the navigation
// target. Name is display text and may be a positional placeholder.
type TocPage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TocPagesPayload is the one-shot legacy table-of-contents report.
type TocPagesPayload struct {
	Pages            []TocPage `json:"pages"`
	CurrentPageIndex int       `json:"currentPageIndex"`
}

// TocPageChangedPayload reports an in-page navigation on the legacy surface.
type TocPageChangedPayload struct {
	CurrentPageIndex int `json:"currentPageIndex"`
}

// NavigateToPagePayload asks the document to open the page with the given id.
type NavigateToPagePayload struct {
	PageID string `json:"pageId"`
}

// AudioPlayerInfo mirrors native playback state into the document.
// LatestMediaLocation carries the playback position (seconds, serialized
// as a string by the web application's convention) so the document can
// persist resume positions; it cannot poll the native player directly.
type AudioPlayerInfo struct {
	FileID              string `json:"fileId"`
	IsPlaying           bool   `json:"isPlaying"`
	LatestMediaLocation string `json:"latestMediaLocation,omitempty"`
}

// ClickPayload is the document's file-interaction event. All optional
// fields arrive as strings because the web application serializes dataset
// attributes verbatim. ResourceID is mandatory; its absence invalidates
// the whole message.
type ClickPayload struct {
	ResourceID    string `json:"resourceId"`
	IsDownload    bool   `json:"isDownload"`
	IsPost        bool   `json:"isPost"`
	ContentType   string `json:"type,omitempty"`
	IsPlaying     string `json:"isPlaying,omitempty"`
	ResumeAt      string `json:"resumeAt,omitempty"`
	ContentLength string `json:"contentLength,omitempty"`
	Extension     string `json:"extension,omitempty"`
}

// Playing reports whether the document considers the resource playing.
// Only the literal string "true" counts; the web side sends stringly bools.
func (c *ClickPayload) Playing() bool { return c.IsPlaying == "true" }

// ResumePosition parses ResumeAt as seconds. ok is false when the field
// is absent or not numeric.
func (c *ClickPayload) ResumePosition() (seconds float64, ok bool) {
	if c.ResumeAt == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(c.ResumeAt, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseClick is the type guard for click payloads. It returns nil, false
// for undecodable payloads and for payloads missing resourceId.
func ParseClick(raw json.RawMessage) (*ClickPayload, bool) {
	var c ClickPayload
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, false
	}
	if c.ResourceID == "" {
		return nil, false
	}
	return &c, true
}
