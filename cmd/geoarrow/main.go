// Command geoarrow converts and inspects geometry columns stored as
// FlatGeobuf, GeoJSON, newline delimited WKT or Arrow IPC files.
package main

func main() {
	Execute()
}
