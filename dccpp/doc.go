/*
Package dccpp drives an Arduino DCC++ base station over a serial port.

Commands are short ASCII frames like "<t 1 3 100 1>", see the [DCC++ wiki] for the full protocol.
Responses of the station are not read.

[DCC++ wiki]: https://github.com/DccPlusPlus/BaseStation/wiki
*/
package dccpp
