package layout

// Target describes the machine the layouts are computed for. Pointer
// width drives usize, isize and every address-carrying scalar.
type Target struct {
	Triple   string
	PtrSize  uint32
	PtrAlign uint32
}

// X86_64LinuxGNU returns the default 64-bit SysV target.
func X86_64LinuxGNU() Target {
	return Target{
		Triple:   "x86_64-linux-gnu",
		PtrSize:  8,
		PtrAlign: 8,
	}
}
