package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishNeverBlocks(t *testing.T) {
	b := NewBus(1)
	assert.True(t, b.Publish(Event{Kind: EventReportCreated, ReportID: "r1"}))
	assert.False(t, b.Publish(Event{Kind: EventReportCreated, ReportID: "r2"}))

	evt := <-b.Subscribe()
	assert.Equal(t, "r1", evt.ReportID)
	assert.True(t, b.Publish(Event{Kind: EventReportCreated, ReportID: "r3"}))
}

func TestBus_NilIsInert(t *testing.T) {
	var b *Bus
	assert.False(t, b.Publish(Event{Kind: EventReportCreated}))
	assert.Nil(t, b.Subscribe())
}
