package vfx

import "math"

const (
	PresetMeleeImpact      = "melee-impact"
	PresetProjectileImpact = "projectile-impact"
	PresetFinisherSlam     = "finisher-slam"
	PresetSwingFrame       = "swing-frame"
	PresetProjectileDeath  = "projectile-death"
)

// finisherBoost is how many steps a finisher escalates past the combo count.
const finisherBoost = 2

// heat maps an intensity step onto palette progress. It rises quickly for the
// first few steps and approaches 1 without reaching it.
func heat(step int) float64 {
	s := float64(clampStep(step))
	return s / (s + 4)
}

// MeleeImpact is the on-hit effect for swung weapons: a bloom flash, a radial
// spark burst and, on crits, an extra ring of motes.
func (c *Composer) MeleeImpact(s Style, inv Invocation) {
	c.run(PresetMeleeImpact, func() {
		h := heat(inv.Step)
		em := s.Impact.ScaleByIntensity(inv.Step)

		scale, opacity := s.BloomScale*em.Scale, 0.85
		if inv.Crit {
			scale *= 1.35
			opacity = 1
		}
		c.bloom(PresetMeleeImpact, inv.Position, s.Bloom, scale, opacity)

		c.burst(s, inv.Position, s.Spark, em, 0, 2*math.Pi, 0.35*h+0.3, 0.5*h+0.5)
		if inv.Crit {
			c.ring(s, inv.Position, s.Mote, em.Count/2+4, em.Speed*0.6, em.Scale, 1)
		}

		c.light(inv.Position, Evaluate(s.Palette, 0.55+0.45*h), s.Light*(0.6+0.4*h))
	})
}

// ProjectileImpact is the on-hit effect for projectiles. Step is the bounce
// count. With a direction, sparks spray back against the direction of travel.
func (c *Composer) ProjectileImpact(s Style, inv Invocation) {
	c.run(PresetProjectileImpact, func() {
		h := heat(inv.Step)
		em := s.Impact.ScaleByIntensity(inv.Step)

		scale, opacity := s.BloomScale*em.Scale*0.6, 0.75
		if inv.Crit {
			scale *= 1.25
			opacity = 0.95
		}
		c.bloom(PresetProjectileImpact, inv.Position, s.Bloom, scale, opacity)

		heading, arc := 0.0, 2*math.Pi
		if !inv.Direction.IsZero() {
			heading, arc = inv.Direction.Angle()+math.Pi, 2*math.Pi/3
		}
		c.burst(s, inv.Position, s.Spark, em, heading, arc, 0.3+0.4*h, 0.7+0.3*h)

		c.light(inv.Position, Evaluate(s.Palette, 0.5+0.5*h), s.Light*0.5*(1+h))
	})
}

// FinisherSlam closes a combo: a large bloom, a cascade of expanding rings
// (one more per step, up to four), an upward spark fan and rising notes.
func (c *Composer) FinisherSlam(s Style, inv Invocation) {
	c.run(PresetFinisherSlam, func() {
		step := clampStep(inv.Step)
		em := s.Impact.ScaleByIntensity(step + finisherBoost)

		scale := s.BloomScale * em.Scale * 2
		if inv.Crit {
			scale *= 1.25
		}
		c.bloom(PresetFinisherSlam, inv.Position, s.Bloom, scale, 1)

		rings := 1 + min(step, 3)
		for r := 0; r < rings; r++ {
			fr := float64(r)
			c.ring(s, inv.Position, s.Mote, 8+4*r, em.Speed*(0.5+0.35*fr), em.Scale, 0.4+0.2*fr)
		}
		c.burst(s, inv.Position, s.Spark, em, -math.Pi/2, math.Pi, 0.6, 1)
		c.notes(s, inv.Position, 3+min(step, 5), em.Speed*0.5)

		c.light(inv.Position, s.Palette.At(Sforzando), s.Light*1.5)
	})
}

// SwingFrame runs every frame of a swing at the blade tip. Progress walks the
// palette; Direction is the swing tangent, and motes shed across it.
func (c *Composer) SwingFrame(s Style, inv Invocation) {
	c.run(PresetSwingFrame, func() {
		t := Clamp01(inv.Progress)
		em := s.Trail.ScaleByIntensity(inv.Step)

		c.bloom(PresetSwingFrame, inv.Position, s.Bloom, s.BloomScale*0.45*em.Scale, 0.35+0.45*t)

		heading := 0.0
		if !inv.Direction.IsZero() {
			heading = inv.Direction.Angle()
		}
		c.burst(s, inv.Position, s.Mote, em, heading+math.Pi/2, math.Pi/3, 0.6*t, t)

		c.light(inv.Position, Evaluate(s.Palette, t), s.Light*0.3)
	})
}

// ProjectileDeath plays when a projectile expires. Step is the ricochet count.
func (c *Composer) ProjectileDeath(s Style, inv Invocation) {
	c.run(PresetProjectileDeath, func() {
		step := clampStep(inv.Step)
		h := heat(step)
		em := s.Impact.ScaleByIntensity(step)

		c.bloom(PresetProjectileDeath, inv.Position, s.Bloom, s.BloomScale*em.Scale*1.2, 0.9)
		c.ring(s, inv.Position, s.Mote, em.Count, em.Speed*0.5, em.Scale, 0.5+0.5*h)
		c.notes(s, inv.Position, 2+min(step, 4), em.Speed*0.4)

		c.light(inv.Position, Evaluate(s.Palette, 0.6+0.4*h), s.Light*0.8)
	})
}

// burst emits em.Count particles spread across arc radians centered on
// heading, colored from palette progress tLo to tHi.
func (c *Composer) burst(s Style, pos Vec2, kind DustKind, em Emission, heading, arc, tLo, tHi float64) {
	for i := 0; i < em.Count; i++ {
		frac := (float64(i) + c.jitter.Float64()) / float64(em.Count)
		c.host.SpawnDust(Dust{
			Pos:      pos,
			Kind:     kind,
			Velocity: FromAngle(heading+(frac-0.5)*arc, c.jitterAround(em.Speed, 0.3)),
			Color:    Evaluate(s.Palette, tLo+(tHi-tLo)*frac),
			Scale:    c.jitterAround(em.Scale, 0.2),
		})
	}
}

// ring emits count evenly spaced particles at one speed and one color.
func (c *Composer) ring(s Style, pos Vec2, kind DustKind, count int, speed, scale, t float64) {
	col := Evaluate(s.Palette, t)
	for i := 0; i < count; i++ {
		angle := 2 * math.Pi * float64(i) / float64(count)
		c.host.SpawnDust(Dust{
			Pos:      pos,
			Kind:     kind,
			Velocity: FromAngle(angle, speed),
			Color:    col,
			Scale:    scale,
		})
	}
}

// notes emits n music-note sprites drifting upward.
func (c *Composer) notes(s Style, pos Vec2, n int, speed float64) {
	for i := 0; i < n; i++ {
		c.host.SpawnDust(Dust{
			Pos:      pos,
			Kind:     DustMusicNote,
			Velocity: V((c.jitter.Float64()-0.5)*speed, -c.jitterAround(speed*0.6, 0.25)),
			Color:    s.Palette.At(Forte + Dynamic(i%2)),
			Scale:    1,
		})
	}
}
