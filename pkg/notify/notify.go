// Package notify composes and submits the daily usage report mail: an
// HTML body with a per-bucket summary table and the trend charts embedded
// as inline images.
package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/thannaske/rgwreport/pkg/models"
)

// Notifier submits report mails over an authenticated, STARTTLS-upgraded
// SMTP connection.
type Notifier struct {
	cfg models.MailConfig
	log *slog.Logger
}

// NewNotifier returns a notifier for the given mail settings.
func NewNotifier(cfg models.MailConfig) *Notifier {
	return &Notifier{
		cfg: cfg,
		log: slog.With("component", "notify"),
	}
}

// Send composes the HTML report and submits it to the union of the
// configured To and Cc recipients. Compose, connect, authentication, and
// transmission failures are all returned as a single error; the caller
// decides whether to log and continue. There is no retry.
func (n *Notifier) Send(ctx context.Context, subject, body string, rows []models.BucketUsage, imagePaths []string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(n.cfg.Nickname, n.cfg.From); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := msg.To(n.cfg.To...); err != nil {
		return fmt.Errorf("setting recipients: %w", err)
	}
	if err := msg.Cc(n.cfg.Cc...); err != nil {
		return fmt.Errorf("setting cc recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, ComposeHTML(body, rows, len(imagePaths)))

	for i, path := range imagePaths {
		msg.EmbedFile(path, gomail.WithFileContentID(contentID(i)))
	}

	client, err := gomail.NewClient(n.cfg.Host,
		gomail.WithPort(n.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(n.cfg.Username),
		gomail.WithPassword(n.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending report to %s: %w", n.cfg.Host, err)
	}

	n.log.Info("report sent",
		"to", len(n.cfg.To), "cc", len(n.cfg.Cc), "images", len(imagePaths))
	return nil
}

// ComposeHTML builds the report document: the body text wrapped
// preformatted, the summary table, then one inline image reference per
// embedded chart. Content-ids are one-based.
func ComposeHTML(body string, rows []models.BucketUsage, imageCount int) string {
	var b strings.Builder

	b.WriteString("<pre>")
	b.WriteString(html.EscapeString(body))
	b.WriteString("</pre>")

	b.WriteString("<table border=1><tr><th>bucket</th><th>usage(GB)</th><th>objects</th></tr>")
	for _, r := range rows {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%d</td></tr>",
			html.EscapeString(r.BucketName),
			strconv.FormatFloat(r.UsageGB, 'f', -1, 64),
			r.ObjectCount)
	}
	b.WriteString("</table>")

	for i := 0; i < imageCount; i++ {
		fmt.Fprintf(&b, `<p><img src="cid:%s"></p>`, contentID(i))
	}
	return b.String()
}

func contentID(i int) string {
	return fmt.Sprintf("image%d", i+1)
}
