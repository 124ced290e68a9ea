// Based on https://github.com/datawire/ocibuild/blob/master/pkg/python/stat.go

// Package linux decodes the Linux stat mode word, which the geometry
// probing code needs to tell block devices from regular files.
package linux

type StatMode uint32

const (
	// 16 bits = 5⅓ octal characters

	ModeFmt StatMode = 0o17_0000 // mask for the type bits

	ModeFmtBlockDevice StatMode = 0o06_0000
	ModeFmtCharDevice  StatMode = 0o02_0000
	ModeFmtDir         StatMode = 0o04_0000
	ModeFmtFIFO        StatMode = 0o01_0000
	ModeFmtLink        StatMode = 0o12_0000
	ModeFmtRegular     StatMode = 0o10_0000
	ModeFmtSocket      StatMode = 0o14_0000
)

// IsBlockDev reports whether mode describes a block device.
//
// That is, it tests that the ModeFmt bits are set to
// ModeFmtBlockDevice.
func (mode StatMode) IsBlockDev() bool {
	return mode&ModeFmt == ModeFmtBlockDevice
}

// IsRegular reports whether mode describes a regular file.
//
// That is, it tests that the ModeFmt bits are set to ModeFmtRegular.
func (mode StatMode) IsRegular() bool {
	return mode&ModeFmt == ModeFmtRegular
}

// String gives the type as a one-character tag, the same one `ls -l`
// would lead with.
func (mode StatMode) String() string {
	return string("?pc?d?b?-?l?s???"[mode>>12])
}
