package analysis

import (
	"context"

	"github.com/poiesic/stancewatch/core"
	"github.com/poiesic/stancewatch/storage"
)

// TimelineEntry is one statement joined with its politician and topic.
type TimelineEntry struct {
	Statement  *core.Statement
	Politician *core.Politician
	Topic      *core.Topic
}

// Timeline returns recent statements newest first, optionally filtered by
// politician and/or topic, each joined with its reference entities.
func (a *Analyzer) Timeline(ctx context.Context, filter storage.StatementFilter) ([]TimelineEntry, error) {
	statements, err := a.statements.ListStatements(ctx, filter)
	if err != nil {
		return nil, err
	}

	politicians := make(map[core.ID]*core.Politician)
	topics := make(map[core.ID]*core.Topic)

	entries := make([]TimelineEntry, 0, len(statements))
	for _, statement := range statements {
		politician, ok := politicians[statement.PoliticianId]
		if !ok {
			politician, err = a.references.GetPolitician(ctx, statement.PoliticianId)
			if err != nil {
				return nil, err
			}
			politicians[statement.PoliticianId] = politician
		}

		topic, ok := topics[statement.TopicId]
		if !ok {
			topic, err = a.references.GetTopic(ctx, statement.TopicId)
			if err != nil {
				return nil, err
			}
			topics[statement.TopicId] = topic
		}

		entries = append(entries, TimelineEntry{
			Statement:  statement,
			Politician: politician,
			Topic:      topic,
		})
	}
	return entries, nil
}
