package play

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/shelf/internal/session"
	"github.com/abhisek/shelf/internal/ui/components"
	"github.com/abhisek/shelf/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	inner := max(width-8, 20)
	var body string
	switch {
	case s.starting && s.state.Status != session.StatusError:
		body = s.spinner.View() + " Preparing your session..."
	case s.state.Status == session.StatusError:
		body = s.errorView()
	case s.state.Status == session.StatusReady:
		body = s.readyView(inner)
	case s.state.Status == session.StatusPlaying:
		body = s.questionView(inner)
	case s.state.Status == session.StatusIntermission:
		body = s.intermissionView(inner)
	case s.state.Status == session.StatusFinished:
		body = s.finishedView()
	default:
		body = s.spinner.View() + " Preparing your session..."
	}
	return lipgloss.NewStyle().Padding(1, 4).Width(width).MaxHeight(height).Render(body)
}

func (s *Screen) errorView() string {
	msg := s.state.Error
	if msg == "" {
		msg = "Something went wrong."
	}
	return theme.Incorrect.Render(msg) + "\n\n" + theme.Hint.Render("Press R to try again.")
}

func (s *Screen) readyView(width int) string {
	var b strings.Builder
	info := s.state.SessionInfo
	fmt.Fprintf(&b, "%s\n\n", theme.Title.Render(info.CourseName))

	session := fmt.Sprintf("Session %d", info.CurrentSession)
	if info.IsNewSession {
		session += "  (new today)"
	}
	b.WriteString(theme.Body.Render(session) + "\n")

	if q := s.state.QuotaInfo; q != nil {
		fmt.Fprintf(&b, "%s %d of %d planned\n", theme.Label.Render("Queue"), len(s.state.ReviewQueue), q.ReviewQuota)
		fmt.Fprintf(&b, "%s %d waiting\n", theme.Label.Render("Reviews"), q.PendingReviewCount)
		if q.IsMaintenanceMode {
			b.WriteString("\n" + theme.Hint.Render("Everything is reviewed. This session only revisits archived questions."))
			b.WriteString("\n")
		}
	}
	if cs := s.state.CourseStats; cs != nil {
		fmt.Fprintf(&b, "%s %d solved, %.0f%% average mastery\n", theme.Label.Render("Course"), cs.TotalQuestionsSolved, cs.AverageMastery)
	}

	b.WriteString("\n")
	if len(s.state.ReviewQueue) == 0 {
		b.WriteString(theme.Hint.Render("Nothing to study right now. Come back later."))
		return b.String()
	}
	if s.state.CurrentReviewIndex > 0 {
		b.WriteString(theme.Hint.Render(fmt.Sprintf("Resuming at question %d.", s.state.CurrentReviewIndex+1)) + "\n")
	}
	b.WriteString(theme.Hint.Render("Press Enter to start."))
	return lipgloss.NewStyle().Width(width).Render(b.String())
}

func (s *Screen) questionView(width int) string {
	var b strings.Builder
	batch := s.state.Batches[min(s.state.CurrentBatchIndex, len(s.state.Batches)-1)]
	done := 0
	for _, it := range batch {
		if it.Answered {
			done++
		}
	}
	bar := components.ProgressBar{
		Label: fmt.Sprintf("Batch %d/%d", s.state.CurrentBatchIndex+1, s.state.TotalBatches()),
		Done:  done,
		Total: len(batch),
		Width: width,
	}
	b.WriteString(bar.View() + "\n\n")

	switch {
	case s.loadErr != nil:
		b.WriteString(theme.Incorrect.Render("Could not load this question.") + "\n")
		b.WriteString(theme.Hint.Render("Press R to retry or P to go back."))
		return b.String()
	case s.question == nil:
		b.WriteString(s.spinner.View() + " Loading question...")
		return b.String()
	}

	b.WriteString(s.choice.View(width))
	if !s.state.IsAnswered {
		return b.String()
	}

	b.WriteString("\n")
	switch {
	case s.state.IsCorrect != nil && *s.state.IsCorrect:
		b.WriteString(theme.Correct.Render("Correct!"))
	case s.state.SelectedAnswer == nil:
		b.WriteString(theme.Incorrect.Render(fmt.Sprintf("Left blank. The answer is %s.", components.OptionLabel(s.question.CorrectIndex))))
	default:
		b.WriteString(theme.Incorrect.Render(fmt.Sprintf("Not quite. The answer is %s.", components.OptionLabel(s.question.CorrectIndex))))
	}
	if s.state.IsSyncing {
		b.WriteString("  " + theme.Faded.Render(s.spinner.View()+" saving"))
	}
	b.WriteString("\n")
	if s.state.TopicRefreshed {
		b.WriteString(theme.Label.Render("Topic fully reviewed. Its review clock starts over.") + "\n")
	}
	if s.question.Explanation != "" {
		b.WriteString("\n" + theme.Body.Width(width).Render(s.question.Explanation) + "\n")
	}
	if s.question.Evidence != "" {
		b.WriteString("\n" + theme.Hint.Width(width).Render("\""+s.question.Evidence+"\"") + "\n")
	}
	return b.String()
}

func (s *Screen) intermissionView(width int) string {
	r := s.state.Results
	var b strings.Builder
	b.WriteString(theme.Title.Render(fmt.Sprintf("Batch %d of %d done", s.state.CurrentBatchIndex, s.state.TotalBatches())))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %d   %s %d   %s %d\n",
		theme.Correct.Render("Correct"), r.Correct,
		theme.Incorrect.Render("Wrong"), r.Incorrect,
		theme.Faded.Render("Blank"), r.Blank)
	fmt.Fprintf(&b, "%s %s\n\n", theme.Label.Render("Time"), session.FormatClock(r.TotalTime))
	b.WriteString(components.ProgressBar{
		Label: "Overall",
		Done:  s.state.CurrentReviewIndex,
		Total: len(s.state.ReviewQueue),
		Width: width,
	}.View())
	b.WriteString("\n\n" + theme.Hint.Render("Take a breath. Press Enter for the next batch."))
	return b.String()
}

func (s *Screen) finishedView() string {
	sum := s.engine.Summary()
	var b strings.Builder
	b.WriteString(theme.Title.Render("Session complete") + "\n\n")
	if sum.Total == 0 {
		b.WriteString(theme.Hint.Render("No questions answered."))
		return b.String()
	}
	rows := [][2]string{
		{"Answered", fmt.Sprintf("%d", sum.Total)},
		{"Correct", fmt.Sprintf("%d (%d%%)", sum.Correct, sum.Percentage)},
		{"Wrong", fmt.Sprintf("%d", sum.Incorrect)},
		{"Blank", fmt.Sprintf("%d", sum.Blank)},
		{"Mastery", fmt.Sprintf("%d", sum.MasteryScore)},
		{"To review", fmt.Sprintf("%d", sum.PendingReview)},
		{"Time", sum.FormattedTime()},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "%s %s\n", theme.Label.Width(11).Render(r[0]), theme.Body.Render(r[1]))
	}
	return theme.Card.Render(strings.TrimRight(b.String(), "\n"))
}
