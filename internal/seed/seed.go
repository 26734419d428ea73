// Package seed loads a small fixed sample mailbox for an owner so the
// application is usable before any real import has run.
package seed

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smartinbox/smartinbox/internal/mail"
	"github.com/smartinbox/smartinbox/internal/store"
)

var (
	johnSmith     = mail.Address{Name: "John Smith", Address: "john.smith@company.com"}
	sarahJohnson  = mail.Address{Name: "Sarah Johnson", Address: "sarah.johnson@company.com"}
	techTeam      = mail.Address{Name: "Tech Team", Address: "tech.team@company.com"}
	hrDept        = mail.Address{Name: "HR Department", Address: "hr@company.com"}
	marketingTeam = mail.Address{Name: "Marketing Team", Address: "marketing@company.com"}
	testUser      = mail.Address{Name: "Test User", Address: "test@example.com"}
)

type seedThread struct {
	thread mail.Thread
	email  mail.Email
}

// Run creates the sample account and mailbox for one owner. The corpus is
// deterministic so repeated demos behave the same way.
func Run(ctx context.Context, st *store.Store, ownerID string) error {
	accountID, err := st.UpsertAccount(ctx, store.AccountParams{
		OwnerID:      ownerID,
		Provider:     "gmail",
		EmailAddress: testUser.Address,
		Name:         testUser.Name,
		Token:        "seed-token-" + ownerID,
	})
	if err != nil {
		return err
	}

	for _, s := range sampleThreads() {
		s.thread.AccountID = accountID
		if err := st.InsertThread(ctx, &s.thread); err != nil {
			return err
		}
		s.email.ThreadID = s.thread.ID
		if err := st.InsertEmail(ctx, accountID, &s.email); err != nil {
			return err
		}
	}

	log.Info().Str("owner", ownerID).Int("threads", len(sampleThreads())).Msg("sample mailbox seeded")
	return nil
}

func at(day string, hour, minute int) time.Time {
	t, _ := time.Parse("2006-01-02", day)
	return t.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func sampleThreads() []seedThread {
	return []seedThread{
		{
			thread: mail.Thread{
				Subject:         "Q4 Project Update - Major Milestones Achieved",
				LastMessageDate: at("2024-01-15", 10, 30),
				ParticipantIDs:  []string{johnSmith.Address, testUser.Address},
				InboxStatus:     true,
			},
			email: mail.Email{
				Subject:     "Q4 Project Update - Major Milestones Achieved",
				BodySnippet: "Hi team, I wanted to share our progress on the Q4 goals...",
				Body: "<div><p>Hi team,</p>" +
					"<p>I wanted to share our progress on the Q4 goals. We've made significant strides in several key areas:</p>" +
					"<ul><li>Product development is 85% complete</li>" +
					"<li>Marketing campaign has launched successfully</li>" +
					"<li>Customer feedback has been overwhelmingly positive</li>" +
					"<li>Revenue targets are 92% achieved</li></ul>" +
					"<p>Let's schedule a meeting next week to discuss the final quarter push and plan for Q1.</p>" +
					"<p>Best regards,<br>John</p></div>",
				SentAt:         at("2024-01-15", 10, 30),
				ReceivedAt:     at("2024-01-15", 10, 31),
				HasAttachments: true,
				Label:          mail.FolderInbox,
				Sensitivity:    mail.SensitivityNormal,
				From:           johnSmith,
				To:             []mail.Address{testUser},
				Attachments: []mail.Attachment{
					{Name: "Q4_Report.pdf", MimeType: "application/pdf", Size: 2457600},
				},
			},
		},
		{
			thread: mail.Thread{
				Subject:         "Meeting Tomorrow at 2 PM - Agenda Attached",
				LastMessageDate: at("2024-01-15", 9, 15),
				ParticipantIDs:  []string{sarahJohnson.Address, testUser.Address},
				InboxStatus:     true,
			},
			email: mail.Email{
				Subject:     "Meeting Tomorrow at 2 PM - Agenda Attached",
				BodySnippet: "Just a reminder about our scheduled meeting...",
				Body: "<div><p>Hi there,</p>" +
					"<p>Just a reminder about our scheduled meeting tomorrow at 2 PM. We'll be discussing:</p>" +
					"<ul><li>Project timeline updates</li>" +
					"<li>Resource allocation for next quarter</li>" +
					"<li>Budget review and approvals</li>" +
					"<li>Team performance metrics</li></ul>" +
					"<p>Please come prepared with your updates and any questions you might have.</p>" +
					"<p>Thanks,<br>Sarah</p></div>",
				SentAt:         at("2024-01-15", 9, 15),
				ReceivedAt:     at("2024-01-15", 9, 16),
				HasAttachments: true,
				Label:          mail.FolderInbox,
				Sensitivity:    mail.SensitivityNormal,
				From:           sarahJohnson,
				To:             []mail.Address{testUser},
				Attachments: []mail.Attachment{
					{Name: "Meeting_Agenda.docx", MimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Size: 348160},
				},
			},
		},
		{
			thread: mail.Thread{
				Subject:         "AI Email RAG Implementation - Confidential",
				LastMessageDate: at("2024-01-15", 8, 45),
				ParticipantIDs:  []string{techTeam.Address, testUser.Address},
				InboxStatus:     true,
			},
			email: mail.Email{
				Subject:     "AI Email RAG Implementation - Confidential",
				BodySnippet: "Great news! We've successfully implemented the AI-driven email RAG system...",
				Body: "<div><p>Hello team,</p>" +
					"<p>Great news! We've successfully implemented the AI-driven email RAG system. The new features include:</p>" +
					"<ul><li>Smart email categorization and tagging</li>" +
					"<li>Intelligent search capabilities with semantic understanding</li>" +
					"<li>Automated response suggestions based on context</li>" +
					"<li>Advanced analytics dashboard for email insights</li>" +
					"<li>Integration with existing CRM systems</li></ul>" +
					"<p>This represents a significant milestone in our AI integration efforts and positions us ahead of competitors.</p>" +
					"<p><strong>Note:</strong> This information is confidential and should not be shared outside the team.</p>" +
					"<p>Regards,<br>Tech Team</p></div>",
				SentAt:         at("2024-01-15", 8, 45),
				ReceivedAt:     at("2024-01-15", 8, 46),
				HasAttachments: true,
				Label:          mail.FolderInbox,
				Sensitivity:    mail.SensitivityConfidential,
				From:           techTeam,
				To:             []mail.Address{testUser},
				Attachments: []mail.Attachment{
					{Name: "Technical_Specifications.pdf", MimeType: "application/pdf", Size: 1843200},
				},
			},
		},
		{
			thread: mail.Thread{
				Subject:         "New Employee Onboarding - Welcome!",
				LastMessageDate: at("2024-01-14", 16, 20),
				ParticipantIDs:  []string{hrDept.Address, testUser.Address},
				InboxStatus:     true,
			},
			email: mail.Email{
				Subject:     "New Employee Onboarding - Welcome!",
				BodySnippet: "Welcome to the team! Here's everything you need to know...",
				Body: "<div><p>Welcome to the team!</p>" +
					"<p>We're excited to have you join us. Here's everything you need to know for your first week:</p>" +
					"<h3>Day 1 Schedule:</h3>" +
					"<ul><li>9:00 AM - Welcome meeting with HR</li>" +
					"<li>10:00 AM - IT setup and system access</li>" +
					"<li>11:00 AM - Team introductions</li>" +
					"<li>2:00 PM - Project overview and goals</li></ul>" +
					"<p>If you have any questions, don't hesitate to reach out!</p>" +
					"<p>Best regards,<br>HR Team</p></div>",
				SentAt:      at("2024-01-14", 16, 20),
				ReceivedAt:  at("2024-01-14", 16, 21),
				Label:       mail.FolderInbox,
				Sensitivity: mail.SensitivityPersonal,
				From:        hrDept,
				To:          []mail.Address{testUser},
			},
		},
		{
			thread: mail.Thread{
				Subject:         "Marketing Campaign Results - Q4 Performance",
				LastMessageDate: at("2024-01-14", 14, 30),
				ParticipantIDs:  []string{marketingTeam.Address, testUser.Address},
				InboxStatus:     true,
			},
			email: mail.Email{
				Subject:     "Marketing Campaign Results - Q4 Performance",
				BodySnippet: "Here are the results from our Q4 marketing campaigns...",
				Body: "<div><p>Hi everyone,</p>" +
					"<p>Here are the results from our Q4 marketing campaigns:</p>" +
					"<h3>Key Metrics:</h3>" +
					"<ul><li>Email open rate: 28.5% (up 15% from Q3)</li>" +
					"<li>Click-through rate: 4.2% (up 8% from Q3)</li>" +
					"<li>Conversion rate: 2.1% (up 12% from Q3)</li>" +
					"<li>Revenue generated: $125,000</li></ul>" +
					"<p>Great work team! Let's keep this momentum going into Q1.</p>" +
					"<p>Cheers,<br>Marketing Team</p></div>",
				SentAt:         at("2024-01-14", 14, 30),
				ReceivedAt:     at("2024-01-14", 14, 31),
				HasAttachments: true,
				Label:          mail.FolderInbox,
				Sensitivity:    mail.SensitivityNormal,
				From:           marketingTeam,
				To:             []mail.Address{testUser},
				Attachments: []mail.Attachment{
					{Name: "Marketing_Analytics.xlsx", MimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Size: 512000},
				},
			},
		},
		{
			thread: mail.Thread{
				Subject:         "Draft: Response to Client Feedback",
				LastMessageDate: at("2024-01-14", 11, 45),
				ParticipantIDs:  []string{testUser.Address, "client@example.com"},
				DraftStatus:     true,
			},
			email: mail.Email{
				Subject:     "Draft: Response to Client Feedback",
				BodySnippet: "Thank you for your valuable feedback on our recent project...",
				Body: "<div><p>Dear [Client Name],</p>" +
					"<p>Thank you for your valuable feedback on our recent project. We appreciate you taking the time to share your thoughts.</p>" +
					"<ul><li>Timeline concerns - We're working to expedite delivery</li>" +
					"<li>Feature requests - These are being evaluated by our team</li>" +
					"<li>Communication improvements - We're implementing new processes</li></ul>" +
					"<p>Best regards,<br>[Your Name]</p></div>",
				SentAt:      at("2024-01-14", 11, 45),
				ReceivedAt:  at("2024-01-14", 11, 45),
				Label:       mail.FolderDraft,
				Sensitivity: mail.SensitivityNormal,
				From:        johnSmith,
				To:          []mail.Address{{Address: "client@example.com"}},
			},
		},
		{
			thread: mail.Thread{
				Subject:         "Sent: Weekly Team Update",
				LastMessageDate: at("2024-01-13", 17, 0),
				ParticipantIDs:  []string{testUser.Address, "team@company.com"},
				SentStatus:      true,
			},
			email: mail.Email{
				Subject:     "Sent: Weekly Team Update",
				BodySnippet: "Here's our weekly team update for this week...",
				Body: "<div><p>Hi team,</p>" +
					"<p>Here's our weekly team update for this week:</p>" +
					"<h3>Completed This Week:</h3>" +
					"<ul><li>Finalized Q4 project deliverables</li>" +
					"<li>Completed client presentations</li>" +
					"<li>Updated documentation</li></ul>" +
					"<h3>Next Week's Priorities:</h3>" +
					"<ul><li>Begin Q1 planning</li>" +
					"<li>Client meetings scheduled</li>" +
					"<li>Team training sessions</li></ul>" +
					"<p>Great work everyone!</p>" +
					"<p>Best regards,<br>Test User</p></div>",
				SentAt:      at("2024-01-13", 17, 0),
				ReceivedAt:  at("2024-01-13", 17, 0),
				Label:       mail.FolderSent,
				Sensitivity: mail.SensitivityNormal,
				From:        testUser,
				To:          []mail.Address{johnSmith, sarahJohnson, techTeam},
			},
		},
		{
			thread: mail.Thread{
				Subject:         "System Maintenance Notice - Tonight 2-4 AM",
				LastMessageDate: at("2024-01-13", 15, 30),
				ParticipantIDs:  []string{techTeam.Address, testUser.Address},
				InboxStatus:     true,
			},
			email: mail.Email{
				Subject:     "System Maintenance Notice - Tonight 2-4 AM",
				BodySnippet: "Scheduled maintenance will occur tonight from 2-4 AM...",
				Body: "<div><p>Hello everyone,</p>" +
					"<p>Scheduled maintenance will occur tonight from 2-4 AM EST. During this time, the following services may be temporarily unavailable:</p>" +
					"<ul><li>Email system</li>" +
					"<li>File sharing platform</li>" +
					"<li>Internal communication tools</li></ul>" +
					"<p>We apologize for any inconvenience and appreciate your patience.</p>" +
					"<p>Regards,<br>IT Team</p></div>",
				SentAt:      at("2024-01-13", 15, 30),
				ReceivedAt:  at("2024-01-13", 15, 31),
				Label:       mail.FolderInbox,
				Sensitivity: mail.SensitivityNormal,
				From:        techTeam,
				To:          []mail.Address{testUser},
			},
		},
	}
}
