// go-mfrc522
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-mfrc522.
//
// go-mfrc522 is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-mfrc522 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-mfrc522; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package mfrc522

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-mfrc522/internal/poll"
)

// DiscoverUID sends REQA and selects the card that answers.
//
// With a zero timeout exactly one attempt is made. Otherwise attempts are
// repeated every PollInterval until a card is selected, the timeout elapses
// or ctx is done. An empty field is reported as ErrNoCard wrapping the last
// protocol error; bus failures are returned immediately.
func (d *Device) DiscoverUID(ctx context.Context, timeout time.Duration) (UID, error) {
	return d.discover(ctx, timeout, false)
}

// WakeUID is DiscoverUID using WUPA, which also reaches halted cards, and
// puts the selected card back into HALT. A card that stays in the field is
// found again by every call, which is what presence polling needs.
func (d *Device) WakeUID(ctx context.Context, timeout time.Duration) (UID, error) {
	return d.discover(ctx, timeout, true)
}

func (d *Device) discover(ctx context.Context, timeout time.Duration, wake bool) (UID, error) {
	if err := ctx.Err(); err != nil {
		return UID{}, err
	}

	uid, retry, err := d.discoverAttempt(wake)
	if !retry || timeout <= 0 {
		return uid, err
	}

	last := err
	uid, err = poll.Timed(ctx, timeout, d.config.PollInterval, func() (UID, bool, error) {
		u, again, attemptErr := d.discoverAttempt(wake)
		if again {
			last = attemptErr
			return u, true, nil
		}
		return u, false, attemptErr
	})
	if errors.Is(err, poll.ErrExhausted) {
		return UID{}, last
	}
	return uid, err
}

// discoverAttempt runs one REQA (or WUPA) + Select. retry reports that
// nothing usable was in the field, which is expected and worth another
// attempt.
func (d *Device) discoverAttempt(wake bool) (UID, bool, error) {
	var atqa [2]byte
	request := d.RequestA
	if wake {
		request = d.WakeupA
	}
	if err := request(atqa[:]); err != nil && !errors.Is(err, ErrCollision) {
		if IsNoCard(err) {
			return UID{}, true, fmt.Errorf("%w: %w", ErrNoCard, err)
		}
		return UID{}, false, err
	}

	var uid UID
	if err := d.Select(&uid, 0); err != nil {
		if IsNoCard(err) || errors.Is(err, ErrCollision) {
			return UID{}, true, fmt.Errorf("%w: %w", ErrNoCard, err)
		}
		return UID{}, false, err
	}

	if wake {
		if err := d.HaltA(); err != nil {
			return UID{}, false, fmt.Errorf("halt %s: %w", uid, err)
		}
	}
	return uid, false, nil
}
