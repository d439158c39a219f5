package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/applebridge/internal/apps"
	"github.com/starford/applebridge/internal/bridge"
	"github.com/starford/applebridge/internal/models"
)

var mailOperations = []string{"unread", "search", "send", "mailboxes", "accounts"}

// mailPreviewLength is the content preview shown for search hits.
const mailPreviewLength = 100

func mailTool() mcp.Tool {
	return mcp.NewTool("mail",
		mcp.WithDescription("Interact with Apple Mail app - read unread emails, search emails, and send emails."),
		mcp.WithString("operation", mcp.Required(),
			mcp.Description("Operation to perform: 'unread', 'search', 'send', 'mailboxes', or 'accounts'"),
			mcp.Enum(mailOperations...)),
		mcp.WithString("account", mcp.Description("Email account to use (optional)")),
		mcp.WithString("mailbox", mcp.Description("Mailbox to use (optional)")),
		mcp.WithNumber("limit", mcp.Description("Number of emails to retrieve (optional, for unread and search operations)")),
		mcp.WithString("search_term", mcp.Description("Text to search for in emails (required for search operation)")),
		mcp.WithString("to", mcp.Description("Recipient email address (required for send operation)")),
		mcp.WithString("subject", mcp.Description("Email subject (required for send operation)")),
		mcp.WithString("body", mcp.Description("Email body content (required for send operation)")),
		mcp.WithString("cc", mcp.Description("CC email address (optional for send operation)")),
		mcp.WithString("bcc", mcp.Description("BCC email address (optional for send operation)")),
	)
}

func (s *Server) mail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	op, err := req.RequireString("operation")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q := apps.MailQuery{
		Account: req.GetString("account", ""),
		Mailbox: req.GetString("mailbox", ""),
		Limit:   req.GetInt("limit", apps.DefaultMailLimit),
	}

	switch op {
	case "unread":
		emails, err := s.svc.Mail.Unread(ctx, q)
		if err != nil {
			return failure("read unread emails", err), nil
		}
		if len(emails) == 0 {
			return mcp.NewToolResultText("No unread emails found"), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Found %d unread emails:\n\n", len(emails)) + formatEmails(emails, false)), nil

	case "search":
		term := req.GetString("search_term", "")
		if term == "" {
			return mcp.NewToolResultError("Search term is required for search operation"), nil
		}
		emails, err := s.svc.Mail.Search(ctx, term, q)
		if err != nil {
			return failure("search emails", err), nil
		}
		if len(emails) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No emails found matching '%s'", term)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Found %d emails matching '%s':\n\n", len(emails), term) + formatEmails(emails, true)), nil

	case "send":
		e := apps.OutgoingEmail{
			To:      req.GetString("to", ""),
			Subject: req.GetString("subject", ""),
			Body:    req.GetString("body", ""),
			CC:      req.GetString("cc", ""),
			BCC:     req.GetString("bcc", ""),
		}
		if e.To == "" || e.Subject == "" || e.Body == "" {
			return mcp.NewToolResultError("To, subject, and body are required for send operation"), nil
		}
		if err := s.svc.Mail.Send(ctx, e); err != nil {
			return failure("send email", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Email sent successfully to %s with subject '%s'", e.To, e.Subject)), nil

	case "mailboxes":
		boxes, err := s.svc.Mail.Mailboxes(ctx, q.Account)
		if err != nil {
			return failure("list mailboxes", err), nil
		}
		if len(boxes) == 0 {
			return mcp.NewToolResultText("No mailboxes found"), nil
		}
		names := make([]string, 0, len(boxes))
		for _, b := range boxes {
			names = append(names, b.String())
		}
		return mcp.NewToolResultText("Available mailboxes: " + strings.Join(names, ", ")), nil

	case "accounts":
		accounts, err := s.svc.Mail.Accounts(ctx)
		if err != nil {
			return failure("list accounts", err), nil
		}
		if len(accounts) == 0 {
			return mcp.NewToolResultText("No email accounts found"), nil
		}
		names := make([]string, 0, len(accounts))
		for _, a := range accounts {
			if a.Type != "" {
				names = append(names, fmt.Sprintf("%s (%s)", a.Name, a.Type))
			} else {
				names = append(names, a.Name)
			}
		}
		return mcp.NewToolResultText("Available accounts: " + strings.Join(names, ", ")), nil
	}
	return unknownOperation(op, mailOperations...), nil
}

func formatEmails(emails []models.Email, preview bool) string {
	parts := make([]string, 0, len(emails))
	for _, e := range emails {
		entry := fmt.Sprintf("From: %s\nSubject: %s\nDate: %s\n", e.Sender, e.Subject, e.Date)
		if preview {
			entry += fmt.Sprintf("Content preview: %s\n", bridge.Truncate(e.Content, mailPreviewLength))
		}
		parts = append(parts, entry)
	}
	return strings.Join(parts, "\n")
}
