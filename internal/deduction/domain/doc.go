// Package domain defines the entities and pure rules of a narrative
// deduction session.
//
// A session runs as rounds of character turns. Each character acts only on
// information it legitimately holds, and the package enforces that boundary
// with two mechanisms:
//
// # Visibility filtering
//
// VisibleActions projects the round's action log into what one observer may
// see: inner reasoning is always stripped, the observer's own actions are
// excluded, and other actions appear only when the observer is targeted or
// the action is publicly observable. FilterKnownInfo applies the same idea
// to tagged facts.
//
// # Secret pressure
//
// Every character secret carries trigger keywords and a pressure value in
// [0,100]. UpdatePressures raises pressure when other characters touch those
// keywords (more when they address the holder directly) and decays it for
// holders whose secrets went unmentioned a full round. PressureWarnings
// turns near-threshold values into the holder's private warning messages.
//
// Action validation (ValidateAction, DetectLeakage), turn ordering
// (NormalizeTurnOrder), and termination arbitration (EvaluateEnd) are pure
// functions as well; the engine package sequences them around the external
// decision step.
package domain
