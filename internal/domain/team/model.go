package team

// Team is one national side of the tournament, keyed internally by ID
// and by the provider's team id for sync upserts. Group is the group
// letter of the fixture the team was first seen in; Active marks sides
// still in the tournament.
type Team struct {
	ID     int64
	APIID  int64
	Name   string
	Group  string
	Active bool
}
