package watermillutil

import (
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
)

// Marshaler encodes every payload exchanged over the in-process bus.
var Marshaler = cqrs.JSONMarshaler{}
