package notification

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/afcpln/listingnet/internal/models"
)

// MaxMessageBodyLength caps the conversation message text quoted in an email.
const MaxMessageBodyLength = 2000

const (
	welcomeSubject = "Welcome to the AFC Private Listing Network"
	testSubject    = "AFC Private Listings - Test Notification"
	callToAction   = "Log in to view more details in the Private Listing Network."
)

var pricePrinter = message.NewPrinter(language.AmericanEnglish)

// formatPrice renders a USD amount such as $350,000.00.
func formatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return pricePrinter.Sprintf("$%.2f", *p)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// lineWriter accumulates body lines, skipping labelled lines whose value is empty.
type lineWriter struct {
	lines []string
}

func (w *lineWriter) line(s string) { w.lines = append(w.lines, s) }

func (w *lineWriter) field(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	w.lines = append(w.lines, label+": "+value)
}

func (w *lineWriter) String() string { return strings.Join(w.lines, "\n") }

// withHTML renders the HTML alternative for msg. A template failure leaves
// the message text-only.
func withHTML(badge string, msg Message) Message {
	if html, err := buildEmailHTML(badge, msg.Subject, msg.Text); err == nil {
		msg.HTML = html
	}
	return msg
}

// listingMatchMessage builds the alert sent to a buyer whose saved search
// matched a newly published listing.
func listingMatchMessage(buyer models.User, l models.Listing, search models.SavedSearch) Message {
	where := strings.TrimSpace(l.Area)
	if where == "" {
		where = strings.TrimSpace(l.City())
	}
	if where == "" {
		where = "your area"
	}
	subject := fmt.Sprintf("New listing in %s for your saved search %q", where, search.Name)

	var w lineWriter
	w.line(fmt.Sprintf("Hi %s,", buyer.DisplayName()))
	w.line("")
	w.line(fmt.Sprintf("We found a new listing that matches your %q saved search:", search.Name))
	w.field("Title", l.Title)
	w.field("Address", l.FormattedAddress())
	w.field("Price", formatPrice(l.Price))
	if l.Bedrooms != nil {
		w.field("Bedrooms", strconv.Itoa(*l.Bedrooms))
	}
	if l.Bathrooms != nil {
		w.field("Bathrooms", formatNumber(*l.Bathrooms))
	}
	if l.SquareFeet != nil {
		w.field("Square feet", pricePrinter.Sprintf("%d", *l.SquareFeet))
	}
	if d := strings.TrimSpace(l.Description); d != "" {
		w.line("")
		w.line(d)
	}
	w.line("")
	w.line(callToAction)

	return withHTML("NEW LISTING", Message{
		To:      strings.TrimSpace(buyer.Email),
		Subject: subject,
		Text:    w.String(),
	})
}

// conversationMessage builds the alert sent to the participant who did not
// write the message. senderKnown is false when the sender matched neither
// participant.
func conversationMessage(recipient, sender models.UserSummary, senderKnown bool, l models.Listing, body string) Message {
	title := strings.TrimSpace(l.Title)
	if title == "" {
		title = "a listing"
	}
	from := "a member"
	if senderKnown {
		from = sender.DisplayName()
		if from == "there" {
			from = "a member"
		}
	}
	subject := fmt.Sprintf("New message from %s about %s", from, title)

	var w lineWriter
	w.line(fmt.Sprintf("Hi %s,", recipient.DisplayName()))
	w.line("")
	w.line(fmt.Sprintf("You have a new message from %s about %q.", from, title))
	w.field("Location", l.Location())
	w.line("")
	w.line("Message:")
	w.line(body)
	w.line("")
	w.line("Log in to the Private Listing Network to reply.")

	return withHTML("NEW MESSAGE", Message{
		To:      strings.TrimSpace(recipient.Email),
		Subject: subject,
		Text:    w.String(),
	})
}

// welcomeMessage builds the registration email.
func welcomeMessage(u models.User) Message {
	var w lineWriter
	w.line(fmt.Sprintf("Hi %s,", u.DisplayName()))
	w.line("")
	w.line("Thanks for joining the AFC Private Listing Network. Your account is ready to go.")
	w.line("Log in anytime to explore private listings, manage saved searches, and connect with listing agents.")
	w.line("")
	w.line("If you did not create this account, please ignore this email.")

	return withHTML("WELCOME", Message{
		To:      strings.TrimSpace(u.Email),
		Subject: welcomeSubject,
		Text:    w.String(),
	})
}

func testMessage(to string) Message {
	return withHTML("TEST", Message{
		To:      strings.TrimSpace(to),
		Subject: testSubject,
		Text:    "This is a test notification from the AFC Private Listing Network.\n\nYour mail configuration is working correctly.",
	})
}

// normalizeMessageBody trims the body and caps it at MaxMessageBodyLength runes.
func normalizeMessageBody(body string) string {
	body = strings.TrimSpace(body)
	if utf8.RuneCountInString(body) <= MaxMessageBodyLength {
		return body
	}
	runes := []rune(body)
	return string(runes[:MaxMessageBodyLength])
}
