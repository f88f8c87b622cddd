package caldav

import (
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/inboxcal/inboxcal/pkg/calendar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentToEvent(t *testing.T) {
	t.Run("should map a full VEVENT to a calendar event", func(t *testing.T) {
		// given
		start := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
		comp := ical.NewComponent(ical.CompEvent)
		comp.Props.SetText(ical.PropUID, "uid-1")
		comp.Props.SetText(ical.PropSummary, "Book club")
		comp.Props.SetText(ical.PropDescription, "Chapter 4 discussion")
		comp.Props.SetText(ical.PropLocation, "Library")
		comp.Props.SetDateTime(ical.PropDateTimeStart, start)
		comp.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(90*time.Minute))

		// when
		event, err := componentToEvent(comp, "acc-1")

		// then
		require.NoError(t, err)
		assert.Equal(t, "uid-1", event.ID)
		assert.Equal(t, "Book club", event.Title)
		assert.Equal(t, "Chapter 4 discussion", event.Description)
		assert.Equal(t, "Library", event.Location)
		assert.True(t, event.Start.Equal(start))
		assert.True(t, event.End.Equal(start.Add(90*time.Minute)))
		assert.Equal(t, calendar.SourceCalDAV, event.Source)
		assert.Equal(t, "acc-1", event.AccountID)
	})

	t.Run("should default a missing end time to one hour after start", func(t *testing.T) {
		// given
		start := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
		comp := ical.NewComponent(ical.CompEvent)
		comp.Props.SetText(ical.PropUID, "uid-2")
		comp.Props.SetText(ical.PropSummary, "Open-ended")
		comp.Props.SetDateTime(ical.PropDateTimeStart, start)

		// when
		event, err := componentToEvent(comp, "acc-1")

		// then
		require.NoError(t, err)
		assert.True(t, event.End.Equal(start.Add(time.Hour)))
	})

	t.Run("should use Untitled for events without a summary", func(t *testing.T) {
		// given
		comp := ical.NewComponent(ical.CompEvent)
		comp.Props.SetText(ical.PropUID, "uid-3")
		comp.Props.SetDateTime(ical.PropDateTimeStart, time.Now())

		// when
		event, err := componentToEvent(comp, "acc-1")

		// then
		require.NoError(t, err)
		assert.Equal(t, "Untitled", event.Title)
	})

	t.Run("should reject events without a start time", func(t *testing.T) {
		// given
		comp := ical.NewComponent(ical.CompEvent)
		comp.Props.SetText(ical.PropUID, "uid-4")
		comp.Props.SetText(ical.PropSummary, "No start")

		// when
		_, err := componentToEvent(comp, "acc-1")

		// then
		assert.Error(t, err)
	})
}

func TestEventToComponent(t *testing.T) {
	t.Run("should round-trip an event through a VEVENT component", func(t *testing.T) {
		// given
		start := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
		source := calendar.Event{
			Title:       "Dentist",
			Description: "Checkup",
			Location:    "Main St 5",
			Start:       start,
			End:         start.Add(time.Hour),
		}

		// when
		comp := eventToComponent("uid-5", source)
		event, err := componentToEvent(comp, "acc-1")

		// then
		require.NoError(t, err)
		assert.Equal(t, "uid-5", event.ID)
		assert.Equal(t, "Dentist", event.Title)
		assert.Equal(t, "Checkup", event.Description)
		assert.Equal(t, "Main St 5", event.Location)
		assert.True(t, event.Start.Equal(source.Start))
		assert.True(t, event.End.Equal(source.End))
	})
}
