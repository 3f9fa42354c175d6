// Package engine runs the hospital: one Engine owns a ward (beds, theatres,
// waiting queue, provider roster) and simulates it one day at a time.
//
// A day runs these systems in order:
//
//  1. AdmissionSystem moves waiting patients into free beds.
//  2. MatchingSystem pairs each provider with the first occupied bed it can treat.
//  3. TreatmentSystem treats or operates on every matched patient.
//  4. MatchingSystem releases providers and care flags.
//  5. RecoverySystem counts down recovering patients and discharges the healthy.
//  6. TheatreSystem frees every theatre used during the day.
//
// Systems never talk to each other directly; they share the ward and
// write to the event log.
package engine
