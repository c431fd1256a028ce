package siphon

import (
	"fmt"

	"github.com/tubekit/tubes/tube"
)

// Series wraps each tube in its own Siphon and chains them tfount-to-tdrain,
// returning the first siphon's tdrain and the last siphon's tfount as the
// externally-visible ends of the chain. The links are made from the far end
// backwards so that each siphon records the chain's last fount as its
// downstream tail.
func Series(tubes ...tube.Tube) (tube.Drain, tube.Fount, error) {
	if len(tubes) == 0 {
		return nil, nil, fmt.Errorf("siphon: series requires at least one tube")
	}
	siphons := make([]*Siphon, len(tubes))
	for i, t := range tubes {
		siphons[i] = New(t)
	}
	for i := len(siphons) - 2; i >= 0; i-- {
		if _, err := siphons[i].FlowTo(siphons[i+1].AsDrain()); err != nil {
			return nil, nil, fmt.Errorf("siphon: series wiring tube %d into %d: %w", i, i+1, err)
		}
	}
	return siphons[0].AsDrain(), siphons[len(siphons)-1].AsFount(), nil
}
