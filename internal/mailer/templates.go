package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var activationTemplate = template.Must(template.New("activation").Parse(`
<h3>Social Account Activation</h3>
<p>Click <a href="{{.Href}}">here</a> to activate account.</p>
<p>Activation window will expire in {{.Window}}.</p>
`))

// ActivationEmail renders the account activation message for to.
func ActivationEmail(to, href string, window time.Duration) (Email, error) {
	var buf bytes.Buffer
	data := struct {
		Href   string
		Window string
	}{href, humanize(window)}
	if err := activationTemplate.Execute(&buf, data); err != nil {
		return Email{}, err
	}
	return Email{
		To:      to,
		Subject: "Activate Social Account",
		Text:    fmt.Sprintf("Open %s to activate your account.", href),
		HTML:    buf.String(),
	}, nil
}

func humanize(d time.Duration) string {
	switch {
	case d >= 24*time.Hour && d%(24*time.Hour) == 0:
		return plural(int(d/(24*time.Hour)), "day")
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
