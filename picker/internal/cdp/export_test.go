package cdp

type Event = event

var Dispatch = dispatch
