package charger

import "bq24259-go/bus"

// charger/<name>/...
func base(name string) bus.Topic { return bus.T("charger", name) }

// TopicInfo carries the retained types.ChargerInfo.
func TopicInfo(name string) bus.Topic { return base(name).Append("info") }

// TopicStatus carries the retained types.CapabilityStatus.
func TopicStatus(name string) bus.Topic { return base(name).Append("status") }

// TopicValue carries the retained types.ChargerValue.
func TopicValue(name string) bus.Topic { return base(name).Append("value") }

// TopicFault carries types.ChargerFault. Not retained: each message is a
// distinct latch read from the part.
func TopicFault(name string) bus.Topic { return base(name).Append("fault") }

// TopicError carries types.ChargerError for failed operations.
func TopicError(name string) bus.Topic { return base(name).Append("event", "error") }

// charger/<name>/control/<verb>
func TopicControl(name, verb string) bus.Topic { return base(name).Append("control", verb) }

func ctrlWildcard(name string) bus.Topic { return base(name).Append("control", "+") }
