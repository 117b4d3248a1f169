// Package thermo provides the moist thermodynamics used by the mixed-layer
// model, the profile generator and the plume model.
//
//   - [VirtualTemperature]: density-equivalent temperature of moist air
//   - [EsatLiq], [QsatLiq]: saturation over liquid water (Tetens form)
//   - [SaturationAdjustment]: temperature of a parcel after condensation
//   - [Dewpoint]: dew point from specific humidity and pressure
//
// All functions are pure and safe for concurrent use.
package thermo
