package version

const Version = "0.1.0"

func String() string { return "cvrag " + Version }
