// Package progress reports upload progress for the résumé request body.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// maxNameRunes bounds the résumé name shown next to the bar.
const maxNameRunes = 24

// Reporter is told about one upload: which résumé, how many bytes in
// total, and how many have been sent so far. Begin may be called again
// for the same request when the body is re-sent after a redirect.
type Reporter interface {
	Begin(resumeName string, total int64)
	Sent(n int64)
	Done()
}

// UploadBar draws a byte progress bar labelled with the résumé name.
type UploadBar struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewUploadBar creates a bar writing to out.
func NewUploadBar(out io.Writer) *UploadBar {
	return &UploadBar{out: out}
}

func (u *UploadBar) Begin(resumeName string, total int64) {
	out := u.out
	u.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(Label(resumeName)),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(out, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func (u *UploadBar) Sent(n int64) {
	if u.bar != nil {
		_ = u.bar.Set64(n)
	}
}

func (u *UploadBar) Done() {
	if u.bar != nil {
		_ = u.bar.Finish()
		u.bar = nil
	}
}

// Label is the bar description for a résumé. Long names keep their
// leading runes and end in an ellipsis.
func Label(resumeName string) string {
	r := []rune(resumeName)
	if len(r) > maxNameRunes {
		resumeName = string(r[:maxNameRunes-1]) + "…"
	}
	return "uploading " + resumeName
}

// Silent ignores every upload.
type Silent struct{}

func (Silent) Begin(string, int64) {}
func (Silent) Sent(int64)          {}
func (Silent) Done()               {}

// ForStderr returns an UploadBar when stderr is a terminal, Silent otherwise.
func ForStderr() Reporter {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return NewUploadBar(os.Stderr)
	}
	return Silent{}
}

// Body wraps an upload body so every read reports the running byte count.
func Body(r io.Reader, rep Reporter) io.Reader {
	return &countingBody{r: r, rep: rep}
}

type countingBody struct {
	r    io.Reader
	rep  Reporter
	sent int64
}

func (b *countingBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if n > 0 {
		b.sent += int64(n)
		b.rep.Sent(b.sent)
	}
	return n, err
}
