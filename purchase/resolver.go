// Package purchase interprets file-interaction clicks arriving from the
// embedded library page and dispatches them to the right native surface:
// PDF viewer, audio playback, or the share sheet.
package purchase

import (
	"context"
	"errors"
	"strings"

	"github.com/quillcart/bridge/audio"
	"github.com/quillcart/bridge/bridge"
	"github.com/quillcart/bridge/messages"
)

// ErrSharingUnavailable reports that the device offers no share sheet.
var ErrSharingUnavailable = errors.New("sharing is not available on this device")

// genericAlert is shown when an underlying error carries no message.
const genericAlert = "Something went wrong. Please try again."

// Downloader fetches a purchased file and returns its local file URI.
type Downloader interface {
	DownloadFile(ctx context.Context, resourceID string) (string, error)
}

// Sharer invokes the native share sheet on a local file.
type Sharer interface {
	Share(ctx context.Context, localURI string) error
}

// PDFNavigator pushes the PDF-viewer screen.
type PDFNavigator interface {
	ShowPDF(localURI, title string)
}

// Alerter shows a blocking user-visible alert.
type Alerter interface {
	Alert(title, message string)
}

// AudioController is the slice of the audio engine the resolver drives.
type AudioController interface {
	PlayAudio(ctx context.Context, req audio.PlayRequest) error
	PauseAudio(ctx context.Context) error
}

// NameLookup resolves a purchase's display name for viewer titles.
type NameLookup interface {
	DisplayName(resourceID string) string
}

// Resolver turns a validated click payload into a native action.
type Resolver struct {
	Downloads Downloader
	Sharing   Sharer
	Viewer    PDFNavigator
	Audio     AudioController
	Alerts    Alerter
	Names     NameLookup
	Log       bridge.Logger

	// SetBusy toggles the in-progress indicator. Cleared on every path.
	SetBusy func(bool)
}

// HandlerSpec returns the registration consuming click messages. The
// payload guard enforces the mandatory resource id before the handler runs.
func (r *Resolver) HandlerSpec() messages.MessageSpec {
	return messages.Message[messages.ClickPayload](messages.TypeClick,
		func(ctx context.Context, c *messages.ClickPayload) error {
			r.Resolve(ctx, c)
			return nil
		},
		messages.WithGuard(func(c *messages.ClickPayload) bool { return c.ResourceID != "" }),
	)
}

// Resolve downloads the referenced file and dispatches on the payload:
// PDF files open the viewer unless the click asked for a plain download,
// audio resources toggle playback, everything else goes to the share
// sheet. Failures surface as alerts; they never propagate.
func (r *Resolver) Resolve(ctx context.Context, click *messages.ClickPayload) {
	r.busy(true)
	defer r.busy(false)

	localURI, err := r.Downloads.DownloadFile(ctx, click.ResourceID)
	if err != nil {
		r.alert(err)
		return
	}

	if strings.HasSuffix(strings.ToLower(localURI), ".pdf") && !click.IsDownload {
		r.Viewer.ShowPDF(localURI, r.displayName(click.ResourceID))
		return
	}

	if click.ContentType == "audio" {
		if click.Playing() {
			if err := r.Audio.PauseAudio(ctx); err != nil {
				r.alert(err)
			}
			return
		}
		req := audio.PlayRequest{
			URI:        localURI,
			ResourceID: click.ResourceID,
			Title:      r.displayName(click.ResourceID),
		}
		if pos, ok := click.ResumePosition(); ok {
			req.ResumeAt = &pos
		}
		if err := r.Audio.PlayAudio(ctx, req); err != nil {
			r.alert(err)
		}
		return
	}

	if err := r.Sharing.Share(ctx, localURI); err != nil {
		r.alert(err)
	}
}

func (r *Resolver) displayName(resourceID string) string {
	if r.Names == nil {
		return ""
	}
	return r.Names.DisplayName(resourceID)
}

func (r *Resolver) busy(v bool) {
	if r.SetBusy != nil {
		r.SetBusy(v)
	}
}

func (r *Resolver) alert(err error) {
	msg := err.Error()
	if msg == "" {
		msg = genericAlert
	}
	if r.Log != nil {
		r.Log.Warn("click resolution failed", "err", err)
	}
	if r.Alerts != nil {
		r.Alerts.Alert("Error", msg)
	}
}
