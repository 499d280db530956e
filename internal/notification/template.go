package notification

import (
	"bytes"
	"html/template"
	"strings"
)

// brandName appears in the HTML header and footer of every notification.
const brandName = "AFC Private Listing Network"

// emailTmpl is the HTML wrapper applied to every outgoing notification.
// {{.Subject}} is auto-escaped by html/template; {{.Body}} is pre-escaped
// with EscapeHTML and passed as template.HTML.
var emailTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1.0">
  <title>{{.Subject}}</title>
</head>
<body style="margin:0;padding:24px 12px;background:#eef2f1;font-family:Georgia,'Times New Roman',serif;color:#1f2933;">
  <div style="max-width:560px;margin:0 auto;background:#ffffff;border:1px solid #d5dedb;">
    <div style="padding:20px 28px;border-bottom:4px solid #0f766e;">
      <div style="font-size:12px;letter-spacing:2px;text-transform:uppercase;color:#0f766e;">{{.Badge}}</div>
      <div style="font-size:22px;margin-top:4px;">{{.Brand}}</div>
    </div>
    <h1 style="margin:0;padding:20px 28px 0;font-size:17px;font-weight:normal;">{{.Subject}}</h1>
    <div style="padding:16px 28px 28px;font-family:Arial,Helvetica,sans-serif;font-size:14px;
                line-height:1.6;white-space:pre-wrap;word-break:break-word;">{{.Body}}</div>
    <div style="padding:14px 28px;background:#f6f8f7;font-family:Arial,Helvetica,sans-serif;
                font-size:11px;color:#7b8794;">
      Sent by {{.Brand}} because of activity on your account.
    </div>
  </div>
</body>
</html>
`))

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML escapes the three characters that can change the structure of
// an HTML body: &, < and >.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// buildEmailHTML renders the HTML email template. The plain-text body is
// escaped before it is placed inside the wrapper.
func buildEmailHTML(badge, subject, text string) (string, error) {
	var buf bytes.Buffer
	err := emailTmpl.Execute(&buf, struct {
		Brand, Badge, Subject string
		Body                  template.HTML
	}{
		Brand:   brandName,
		Badge:   badge,
		Subject: subject,
		//nolint:gosec // text is escaped by EscapeHTML
		Body: template.HTML(EscapeHTML(text)),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
