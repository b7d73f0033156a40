package events

func newEvent(severity Severity, resourceKey, action, description string) Event {
	return Event{
		Severity:    severity,
		Status:      StatusUnread,
		ResourceKey: resourceKey,
		Action:      action,
		Description: description,
		Metadata:    map[string]interface{}{},
	}
}

func Success(resourceKey, action, description string) Event {
	event := newEvent(SeverityInfo, resourceKey, action, description)
	event.Metadata["outcome"] = "success"
	return event
}

func Error(resourceKey, action, description string, err error) Event {
	event := newEvent(SeverityError, resourceKey, action, description)
	if err != nil {
		event.Error = err.Error()
	}
	return event
}

func Info(resourceKey, action, description string) Event {
	return newEvent(SeverityInfo, resourceKey, action, description)
}

func Warning(resourceKey, action, description string) Event {
	return newEvent(SeverityWarning, resourceKey, action, description)
}
