package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"
	"time"

	"github.com/pkg/errors"
)

const resetPath = "/api/v1/users/resetPassword/"

var resetTextTemplate = template.Must(template.New("reset.txt").Parse(
	`Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: {{.URL}}
If you didn't forget your password, please ignore this email!
`))

var resetHTMLTemplate = htmltemplate.Must(htmltemplate.New("reset.html").Parse(
	`<p>Forgot your password?</p>
<p>Submit a PATCH request with your new password and passwordConfirm to:<br><a href="{{.URL}}">{{.URL}}</a></p>
<p>The link is valid for {{.Validity}}. If you didn't forget your password, please ignore this email!</p>
`))

type resetEmail struct {
	Subject string
	Text    string
	HTML    string
}

type resetData struct {
	URL      string
	Validity string
}

// resetURL builds the link the recipient submits the new password to.
func resetURL(baseURL, rawToken string) string {
	return strings.TrimRight(baseURL, "/") + resetPath + rawToken
}

func renderResetEmail(baseURL, rawToken string, validity time.Duration) (*resetEmail, error) {
	data := resetData{
		URL:      resetURL(baseURL, rawToken),
		Validity: formatValidity(validity),
	}

	var text, html bytes.Buffer
	if err := resetTextTemplate.Execute(&text, data); err != nil {
		return nil, errors.Wrap(err, "render reset text")
	}
	if err := resetHTMLTemplate.Execute(&html, data); err != nil {
		return nil, errors.Wrap(err, "render reset html")
	}

	return &resetEmail{
		Subject: "Your password reset token (valid for " + data.Validity + ")",
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

func formatValidity(d time.Duration) string {
	if d > 0 && d%time.Minute == 0 {
		return fmt.Sprintf("%d min", int(d/time.Minute))
	}

	return d.String()
}
