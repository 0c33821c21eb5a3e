// Package detect identifies which registered toolchain understands a boot
// image by trial. For each type, highest priority first, it runs the unpack
// tool into a fresh scratch directory and accepts the first type whose output
// carries no failure marker and whose scratch directory holds a kernel and an
// init script. The package also persists the detected type next to unpacked
// output so packing can skip detection.
package detect
