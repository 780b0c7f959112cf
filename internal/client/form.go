package client

import "context"

// Shortener is the part of Client a Form needs.
type Shortener interface {
	Shorten(ctx context.Context, longURL string) (string, error)
}

// Form holds the state of one shorten form: the input, the last result or
// error, and whether a request is in flight.
type Form struct {
	LongURL  string
	ShortURL string
	Error    string
	Loading  bool

	api Shortener
	// onChange, when set, observes every state transition.
	onChange func(Form)
}

// NewForm returns an empty form submitting through api.
func NewForm(api Shortener) *Form {
	return &Form{api: api}
}

// OnChange registers fn to receive a copy of the form after each change.
func (f *Form) OnChange(fn func(Form)) {
	f.onChange = fn
}

// Submit clears the previous outcome and shortens LongURL. Exactly one of
// ShortURL and Error is set afterwards, and Loading is always cleared.
func (f *Form) Submit(ctx context.Context) {
	f.Error = ""
	f.ShortURL = ""
	f.Loading = true
	f.changed()

	defer func() {
		f.Loading = false
		f.changed()
	}()

	shortURL, err := f.api.Shorten(ctx, f.LongURL)
	if err != nil {
		f.Error = err.Error()
		return
	}
	f.ShortURL = shortURL
}

func (f *Form) changed() {
	if f.onChange != nil {
		f.onChange(*f)
	}
}
