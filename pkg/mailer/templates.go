package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

var welcomeHTML = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>Welcome to {{.AppName}}{{if .Name}}, {{.Name}}{{end}}!</h2>
  <p>Your account <b>{{.Email}}</b> is ready. Log in and start adding todos.</p>
  <p style="color: #888; font-size: 12px;">If you did not sign up, you can ignore this email.</p>
</body>
</html>`))

// Render renders a named template into (subject, text, html).
func Render(name string, data map[string]any) (string, string, string, error) {
	switch name {
	case "welcome":
		var buf bytes.Buffer
		if err := welcomeHTML.Execute(&buf, data); err != nil {
			return "", "", "", err
		}
		subject := fmt.Sprintf("Welcome to %v", data["AppName"])
		text := fmt.Sprintf("Welcome to %v! Your account %v is ready.", data["AppName"], data["Email"])
		return subject, text, buf.String(), nil
	default:
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}
}
