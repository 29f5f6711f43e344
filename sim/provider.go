package sim

// Provider supplies the atomic-physics quantities the simulator cannot
// compute itself: transition rates and transition wavelengths for a pair of
// levels. Implementations are expected to fail (not return zero) when asked
// about a dipole-forbidden pair, so callers MUST check DipoleAllowed before
// invoking either method.
type Provider interface {
	// TransitionRate returns the spontaneous plus blackbody-stimulated
	// transition rate from one level to another, in s^-1, at the given
	// temperature in Kelvin.
	TransitionRate(from, to State, temperature float64) (float64, error)

	// TransitionWavelength returns the transition wavelength in metres,
	// signed by the energy difference E(to) - E(from): positive for
	// absorption, negative for emission. Callers negate it to obtain the
	// emitted-photon wavelength.
	TransitionWavelength(from, to State) (float64, error)
}

// DipoleAllowed reports whether the electric-dipole selection rule permits a
// transition between two levels: |Δl| = 1 and |Δj| < 2. The j comparison is
// exact because j is stored doubled (|Δj| < 2 becomes |ΔJ2| < 4).
func DipoleAllowed(a, b State) bool {
	dl := a.L - b.L
	if dl != 1 && dl != -1 {
		return false
	}
	dj2 := a.J2 - b.J2
	if dj2 < 0 {
		dj2 = -dj2
	}
	return dj2 < 4
}
