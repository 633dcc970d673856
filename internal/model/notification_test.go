package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEventCategories(t *testing.T) {
	assert.Equal(t, CategoryTasks, EventTaskAssigned.Category())
	assert.Equal(t, CategoryTasks, EventTaskDue.Category())
	assert.Equal(t, CategorySessions, EventSessionScheduled.Category())
	assert.Equal(t, CategoryWorkshops, EventWorkshopReminder.Category())
	assert.Equal(t, CategoryReports, EventReportReady.Category())
	assert.Equal(t, CategoryAlerts, EventKPIAlert.Category())
	assert.Equal(t, CategoryGeneral, EventWelcome.Category())
}

func TestPreferenceAllowsEvent(t *testing.T) {
	pref := DefaultPreference(uuid.New())
	assert.True(t, pref.AllowsEvent(EventTaskAssigned))

	pref.NotifyTasks = false
	assert.False(t, pref.AllowsEvent(EventTaskAssigned))
	assert.True(t, pref.AllowsEvent(EventSessionScheduled))

	// General events have no toggle.
	pref.NotifyAlerts = false
	assert.True(t, pref.AllowsEvent(EventWelcome))
}

func TestPreferenceEnabledChannels(t *testing.T) {
	pref := DefaultPreference(uuid.New())
	assert.Equal(t, []Channel{ChannelEmail, ChannelSystem}, pref.EnabledChannels())

	pref.WhatsAppEnabled = true
	pref.EmailEnabled = false
	assert.Equal(t, []Channel{ChannelWhatsApp, ChannelSystem}, pref.EnabledChannels())

	pref.WhatsAppEnabled = false
	pref.SystemEnabled = false
	assert.Empty(t, pref.EnabledChannels())
}
