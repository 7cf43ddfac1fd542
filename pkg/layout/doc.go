// Package layout defines the track layout model served by the controller.
//
// A [Layout] is a flat list of placed pieces ([Item]) plus an optional
// backend enumeration of switches ([SwitchEntry]). Items are immutable once
// loaded; every refresh replaces the whole layout.
//
// # JSON Format
//
// The controller's GET layout endpoint returns:
//
//	{
//	  "items": [
//	    {"id": 12, "part": "2861 Left Switch", "x": 10, "y": 10, "rotation_deg": 90}
//	  ],
//	  "switches": [{"id": "12", "name": "Yard entry"}]
//	}
//
// Item ids may be strings or numbers. Older exports use "partName" or
// "part_number" for the part label, "x_norm"/"y_norm" for the anchor, and
// "rotationDeg" or "rotation" for the angle; all of these are accepted on read. [WriteJSON]
// always emits the canonical names.
//
// BlueBrick .bbm files are imported by the bbm subpackage.
package layout
