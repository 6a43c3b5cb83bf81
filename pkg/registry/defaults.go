package registry

import (
	"github.com/salesdeck/automation/pkg/actions/createrecord"
	"github.com/salesdeck/automation/pkg/actions/sendmessage"
	"github.com/salesdeck/automation/pkg/actions/sendnotification"
	"github.com/salesdeck/automation/pkg/actions/updatefield"
	"github.com/salesdeck/automation/pkg/protocol"
)

// RegisterDefaults wires the built-in action set against the injected CRM
// collaborators.
func RegisterDefaults(r *Registry, records protocol.RecordRepository, sender protocol.MessageSender) error {
	factories := []protocol.ActionFactory{
		createrecord.NewFactory(records),
		updatefield.NewFactory(records),
		sendmessage.NewFactory(sender),
		sendnotification.NewFactory(sender),
	}

	for _, factory := range factories {
		if err := r.Register(factory); err != nil {
			return err
		}
	}

	return nil
}
