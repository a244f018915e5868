// Package fit is the boundary to FIT binary decoding.
//
// The converter and pipeline depend only on the Opener/File/RecordReader
// interfaces and the flat Record type; the production GarminOpener adapts the
// tormoder/fit decoder behind them, flattening typed record messages into raw
// device-unit key/value samples. Tests substitute scripted openers.
package fit
