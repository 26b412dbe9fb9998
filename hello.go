package tapevm

// HelloWorld is the canonical example program. It initializes six cells
// with nested loops and then emits "Hello World!\n" one byte at a time.
const HelloWorld = "++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]" +
	">>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++."
