// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"time"

	"github.com/danielhkuo/planify/models"
)

// consensusReached reports whether every recipient has a current vote.
// The creator may vote too, but their vote never counts toward the
// threshold, only toward the tally.
func consensusReached(votes []models.PollVote, recipientIDs []string) bool {
	if len(recipientIDs) == 0 {
		return false
	}

	voted := map[string]bool{}
	for _, v := range votes {
		voted[v.UserID] = true
	}

	for _, id := range recipientIDs {
		if !voted[id] {
			return false
		}
	}
	return true
}

// tallyVotes counts votes per option, in option creation order. Votes
// for options that no longer exist are dropped.
func tallyVotes(votes []models.PollVote, options []models.PollOption) []models.OptionCount {
	byOption := map[string]int{}
	for _, v := range votes {
		byOption[v.OptionID]++
	}

	counts := make([]models.OptionCount, 0, len(options))
	for _, opt := range options {
		counts = append(counts, models.OptionCount{Option: opt, Votes: byOption[opt.ID]})
	}
	return counts
}

// winningOption picks the option with the most votes. Ties break toward
// the earliest-created option: a single left-to-right scan over the
// tally, replacing the leader only on a strictly higher count.
func winningOption(counts []models.OptionCount) (models.PollOption, bool) {
	if len(counts) == 0 {
		return models.PollOption{}, false
	}

	winner := counts[0]
	for _, c := range counts[1:] {
		if c.Votes > winner.Votes {
			winner = c
		}
	}

	if winner.Votes == 0 {
		return models.PollOption{}, false
	}
	return winner.Option, true
}

// eventDate returns the poll deadline when one was set, otherwise noon
// tomorrow in the server's timezone.
func eventDate(deadline *time.Time, now time.Time) time.Time {
	if deadline != nil {
		return *deadline
	}
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 12, 0, 0, 0, now.Location())
}
