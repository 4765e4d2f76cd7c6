/*
Package game
File: mechanics.go
Description:
    Player & Movement. Position integration, bounds clamping, the
    full-cargo return trip, drilling below the player and teleporting.
*/

package game

import "errors"

// drillBelow tries to dig the cell under the player into the matching hold.
// Walking down an already-dug tunnel is not a rejection and stays silent.
func (s *Session) drillBelow() {
	x, y := s.Player.Cell()
	_, err := s.DrillAt(x, y+1)
	if errors.Is(err, ReasonNotDrillable) {
		return
	}
	s.report(err)
}

// DrillAt digs (x, y) with the player's drill and credits the block to cargo.
// The cell is only cleared when the matching hold has room.
func (s *Session) DrillAt(x, y int) (Block, error) {
	p := s.Player
	b, err := s.World.CheckDrill(x, y, p.DrillPower)
	if err != nil {
		return b, err
	}

	if b.IsOre() {
		if p.OreCargo >= p.OreCapacity {
			return b, ReasonCargoFull
		}
	} else if p.DirtCargo >= p.DirtCapacity {
		return b, ReasonCargoFull
	}

	if _, err := s.World.Drill(x, y, p.DrillPower); err != nil {
		return b, err
	}
	if b.IsOre() {
		p.OreCargo++
		p.Haul[b]++
	} else {
		p.DirtCargo++
	}
	return b, nil
}

// step integrates velocity, clamps to the grid and runs the return trip.
func (s *Session) step() {
	p := s.Player
	p.X += p.VX
	p.Y += p.VY
	p.X = clamp(p.X, 0, float64(s.World.Width-1))
	p.Y = clamp(p.Y, 0, float64(s.World.Depth-1))

	if p.CargoFull() {
		p.Returning = true
	}

	if p.Returning {
		p.VX = 0
		p.VY = -p.Speed
		if _, row := p.Cell(); row == 0 {
			s.SellCargo()
			p.Returning = false
		}
	}
}

// Teleport jumps the player up by its teleport range, never above the surface.
func (s *Session) Teleport() error {
	p := s.Player
	if _, row := p.Cell(); row == 0 {
		return ReasonTeleportFromSurface
	}
	p.Y = max(0, p.Y-float64(p.TeleportRange))
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
