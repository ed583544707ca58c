// Package admin implements the administrative commands that edit the stored
// configuration: group switches, new entries and the conditions collection.
//
// A running daemon notices group switches on its next group sync; new entries
// are picked up on restart.
package admin
