package engine

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// processFeedbackQueue absorbs unprocessed feedback entries in FIFO order, up
// to ProcessFeedbackLimit. Each processed entry mutates the ratee (sentiment,
// reliability, facts) and the rater (bias stats, ghost reverse boost) and
// bumps each participant's profile revision exactly once.
func (t *tick) processFeedbackQueue() {
	limit := t.opts.ProcessFeedbackLimit
	processed := 0

	for i := range t.state.FeedbackQueue {
		if processed >= limit {
			break
		}
		e := &t.state.FeedbackQueue[i]
		if e.Processed {
			continue
		}
		t.processEntry(e)
		processed++
		t.feedbackProcessed = append(t.feedbackProcessed, *e)
	}
}

func (t *tick) processEntry(e *FeedbackEntry) {
	now := t.opts.Now
	defer func() {
		e.Processed = true
		if e.ProcessedAt == nil {
			at := now
			e.ProcessedAt = &at
		}
	}()

	// 1. Resolve participants. An entry referencing an unknown persona is
	// consumed with a warning rather than aborting the tick.
	rater := t.byID[e.FromPersonaID]
	ratee := t.byID[e.ToPersonaID]
	if rater == nil || ratee == nil {
		log.Warn().Str("entry", e.ID).Int64("from", e.FromPersonaID).Int64("to", e.ToPersonaID).
			Msg("Feedback references unknown persona, marking processed")
		return
	}
	rater = t.mutable(rater.ID)
	ratee = t.mutable(ratee.ID)

	// 2. Rater bias weight.
	bias := rater.FeedbackBias
	biasWeight := Clamp(
		1-0.5*absF(bias.HarshnessScore-0.5)-0.5*absF(bias.PositivityBias-0.5),
		0.6, 1.2,
	)

	// 3. Bias-adjusted rating and effective sentiment.
	adjusted := Clamp(
		float64(e.Rating)+(bias.HarshnessScore-0.5)*0.9-(bias.PositivityBias-0.5)*0.9,
		1, 5,
	)
	effective := SentimentNeutral
	switch {
	case adjusted >= 4:
		effective = SentimentPositive
	case adjusted <= 2:
		effective = SentimentNegative
	}

	// 4. Ratee feedback summary.
	t.applyFeedbackSummary(ratee, e, effective, biasWeight)

	// 5. Ratee reliability.
	t.applyReliability(ratee, e, biasWeight)

	// 6. Facts on the ratee.
	confidence := float64(e.Rating) / 5
	for _, issue := range e.Issues {
		ratee.Facts = append(ratee.Facts, Fact{
			Key:        fmt.Sprintf("feedback_issue:%s", strings.ToLower(issue.Code)),
			Value:      issue.Severity,
			Confidence: confidence,
			Status:     FactActive,
			At:         now,
		})
	}
	for _, flag := range e.RedFlags {
		ratee.Facts = append(ratee.Facts, Fact{
			Key:        fmt.Sprintf("feedback_red_flag:%s", strings.ToLower(flag)),
			Value:      flag,
			Confidence: confidence,
			Status:     FactActive,
			At:         now,
		})
	}

	// 7. Ghosted reverse boost for the rater.
	if entryReportsGhosting(e) {
		rater.Reliability.Score = Clamp(rater.Reliability.Score+0.05*biasWeight, 0, 1)
		rater.Reliability.GhostedByOthersCount++
		floor := Clamp(rater.Reliability.Score+0.15, 0, 0.85)
		if rater.MatchPreferences.ReliabilityMinScore == nil || *rater.MatchPreferences.ReliabilityMinScore < floor {
			rater.MatchPreferences.ReliabilityMinScore = &floor
		}
		rater.Facts = append(rater.Facts, Fact{
			Key:        "feedback_experience:ghosted",
			Value:      fmt.Sprintf("by persona %d", e.ToPersonaID),
			Confidence: confidence,
			Status:     FactActive,
			At:         now,
		})
	}

	// 8. Rater bias statistics.
	rb := &rater.FeedbackBias
	rb.RatingCount++
	rb.RatingSum += float64(e.Rating)
	if e.Rating <= 2 || e.Sentiment == SentimentNegative {
		rb.NegativeGiven++
	}
	if len(e.RedFlags) > 0 || hasRedFlagIssue(e) {
		rb.RedFlagsGiven++
	}
	negativeRate := float64(rb.NegativeGiven) / float64(rb.RatingCount)
	redFlagRate := float64(rb.RedFlagsGiven) / float64(rb.RatingCount)
	rb.HarshnessScore = Clamp(1-rb.AverageRating()/5, 0, 1)
	rb.PositivityBias = Clamp(1-negativeRate, 0, 1)
	rb.RedFlagFrequency = Clamp(redFlagRate, 0, 1)

	// One revision bump per participant per entry. Step 9 (processed flag) is
	// handled by the deferred close above.
	t.bumpRevision(ratee)
	if rater.ID != ratee.ID {
		t.bumpRevision(rater)
	}
}

// applyFeedbackSummary folds one observation into the ratee's running summary.
func (t *tick) applyFeedbackSummary(ratee *Persona, e *FeedbackEntry, effective Sentiment, biasWeight float64) {
	fs := &ratee.Profile.FeedbackSummary

	val := 0.0
	switch effective {
	case SentimentPositive:
		val = 1
		fs.PositiveCount++
	case SentimentNegative:
		val = -1
		fs.NegativeCount++
	default:
		fs.NeutralCount++
	}

	total := fs.WeightTotal + biasWeight
	fs.SentimentScore = (fs.SentimentScore*fs.WeightTotal + val*biasWeight) / total
	fs.WeightTotal = total

	for _, issue := range e.Issues {
		fs.IssueTags = appendUniqueFold(fs.IssueTags, strings.ToLower(issue.Code))
	}
	fs.RedFlagTags = appendUniqueFold(fs.RedFlagTags, e.RedFlags...)
	for _, issue := range e.Issues {
		if issue.RedFlag {
			fs.RedFlagTags = appendUniqueFold(fs.RedFlagTags, strings.ToLower(issue.Code))
		}
	}
}

// applyReliability computes the signed reliability delta from the rating and
// the issue codes, scales it by the rater's bias weight, and records the event.
func (t *tick) applyReliability(ratee *Persona, e *FeedbackEntry, biasWeight float64) {
	var delta float64
	switch {
	case e.Rating >= 5:
		delta = 0.08
	case e.Rating >= 4:
		delta = 0.04
	case e.Rating <= 2:
		delta = -0.06
	}

	eventType := ReliabilityEventType("")
	for _, issue := range e.Issues {
		code := strings.ToLower(issue.Code)
		switch {
		case strings.Contains(code, "ghost"):
			delta -= 0.25
			eventType = ReliabilityGhost
		case strings.Contains(code, "no_show"):
			delta -= 0.25
			if eventType != ReliabilityGhost {
				eventType = ReliabilityNoShow
			}
		case strings.Contains(code, "late_cancel") || strings.Contains(code, "late"):
			delta -= 0.12
			if eventType == "" {
				eventType = ReliabilityLateCancel
			}
		case strings.Contains(code, "on_time") || strings.Contains(code, "attended"):
			delta += 0.08
			if eventType == "" {
				eventType = ReliabilityOnTime
			}
		}
	}

	delta *= biasWeight
	if delta == 0 {
		return
	}

	if eventType == "" {
		if delta > 0 {
			eventType = ReliabilityAttended
		} else {
			eventType = ReliabilityLateCancel
		}
	}

	r := &ratee.Reliability
	r.Score = Clamp(r.Score+delta, 0, 1)
	r.History = append(r.History, ReliabilityEvent{
		Type:   eventType,
		Impact: delta,
		At:     t.opts.Now,
		Source: string(e.Source),
	})

	switch eventType {
	case ReliabilityGhost:
		r.GhostCount++
	case ReliabilityNoShow:
		r.NoShowCount++
	case ReliabilityLateCancel:
		r.LateCancelCount++
	case ReliabilityAttended, ReliabilityOnTime:
		r.AttendedCount++
	}
}

// entryReportsGhosting reports a ghost or no-show issue code in the entry.
func entryReportsGhosting(e *FeedbackEntry) bool {
	for _, issue := range e.Issues {
		code := strings.ToLower(issue.Code)
		if strings.Contains(code, "ghost") || strings.Contains(code, "no_show") {
			return true
		}
	}
	return false
}

func hasRedFlagIssue(e *FeedbackEntry) bool {
	for _, issue := range e.Issues {
		if issue.RedFlag {
			return true
		}
	}
	return false
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
