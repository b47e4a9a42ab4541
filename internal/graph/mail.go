package graph

import (
	"context"
	"fmt"
)

// Message is an outgoing mail.
type Message struct {
	Subject string
	// Body is sent as HTML unless Text is set.
	Body string
	Text bool
	To   []string
	// SaveToSentItems keeps a copy in the sender's Sent Items folder.
	SaveToSentItems bool
}

type sendMailRQ struct {
	Message struct {
		Subject string `json:"subject"`
		Body    struct {
			ContentType string `json:"contentType"`
			Content     string `json:"content"`
		} `json:"body"`
		ToRecipients []recipient `json:"toRecipients"`
	} `json:"message"`
	SaveToSentItems bool `json:"saveToSentItems"`
}

type recipient struct {
	EmailAddress struct {
		Address string `json:"address"`
	} `json:"emailAddress"`
}

// SendMail sends m as the signed-in user.
func (c *Client) SendMail(ctx context.Context, m Message) error {
	if len(m.To) == 0 {
		return fmt.Errorf("send mail: no recipients")
	}
	var rq sendMailRQ
	rq.Message.Subject = m.Subject
	rq.Message.Body.ContentType = "HTML"
	if m.Text {
		rq.Message.Body.ContentType = "Text"
	}
	rq.Message.Body.Content = m.Body
	for _, addr := range m.To {
		var r recipient
		r.EmailAddress.Address = addr
		rq.Message.ToRecipients = append(rq.Message.ToRecipients, r)
	}
	rq.SaveToSentItems = m.SaveToSentItems
	return c.doJSON(ctx, "POST", c.baseURL+"/me/sendMail", "send mail", rq, nil)
}
