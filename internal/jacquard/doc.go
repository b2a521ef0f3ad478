// Package jacquard generates knitout programs for double-bed jacquard tubes.
//
// A program is built in four stages that share one Tracker of carrier
// directions:
//
//   - cast-on: every active carrier, in ascending id order, is brought in,
//     knits an interlocking waste course and primes the tube;
//   - body: each stitch grid row is knitted by every carrier in turn, each
//     catching only the needles whose cell holds that carrier, so the other
//     yarns float behind;
//   - finishing: either plain filler rows followed by dropping the work, or
//     a tubular bind-off closed stitch by stitch by the lowest carrier and
//     finished with a pull tab.
//
// Instructions are appended to a knitout.Program in machine execution order.
// A Compiler run is deterministic: identical inputs produce byte-identical
// programs.
package jacquard
