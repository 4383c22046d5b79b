// Package domain models the inputs and outputs of the flood-risk classifier
// for the Delhi grid.
//
// # Feature Vector
//
// The classifier consumes nine values in a fixed order:
//
//	Elevation, Road_Density, Rain_mm, Rain_Past3h, Drain_Water_Level,
//	Soil_Moisture, hour_of_day, month, day_of_week
//
// The first six are continuous and are normalized by the trained scaler. The
// last three are calendar components, each expanded to a (sin, cos) pair by
// [EncodeTime] before classification:
//
//	hour_of_day  period 24   0..23
//	month        period 12   1..12
//	day_of_week  period 7    0..6, Monday=0 (Python weekday convention)
//
// Go's [time.Weekday] starts at Sunday=0; [MondayFirstWeekday] converts.
//
// # Units
//
//	Elevation           metres above sea level
//	Road_Density        0..1 share of drivable road within the cell
//	Rain_mm             rainfall in the hour, millimetres
//	Rain_Past3h         rainfall over the trailing three hours, millimetres
//	Drain_Water_Level   metres
//	Soil_Moisture       0..1 volumetric fraction
//
// # Heuristic Features
//
// When a request carries only coordinates, [DeriveFeatures] approximates the
// continuous features from latitude, longitude and month. It is a stand-in
// for GIS and weather feeds, not measured data:
//
//	Elevation:  200 base, +20 south of 28.6N, +10 west of 77.1E,
//	            + (lat-28.6)*50 + (lon-77.1)*30, clamped to [180, 250]
//	Roads:      0.8 central box, 0.6 urban box, 0.3 elsewhere
//	Rain:       monsoon (Jul-Sep) 15/8, shoulder (Jun, Oct) 8/4, dry 2/1
//	Drain:      0.5, or 1.2 below 210 m; x1.5 in monsoon
//	Soil:       0.3 dry, 0.5 shoulder, 0.7 monsoon; +0.2 below 210 m, max 1.0
//
// # Dataset Defaults
//
// Historical rows may carry missing (NaN) measurements. Gaps are filled from
// the heuristic when coordinates are known, otherwise from [DefaultFeatures].
//
// # Errors
//
// [ValidationError] marks client-correctable input; [UnavailableError] marks a
// capability whose artifact or data file failed to load. Anything else is an
// internal failure.
package domain
